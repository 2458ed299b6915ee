// Package gateway wraps a model.ChatModel/model.EmbedModel pair with the
// retry, timeout and cost-accounting policy every caller in this module
// needs: Proposer, Evaluator and Finalizer all talk to a *Gateway, never
// to a model.ChatModel directly.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/tot-engine/tot-go/tot/cost"
	"github.com/tot-engine/tot-go/tot/model"
)

// RetryPolicy bounds how a Gateway recovers from transient failures,
// mirroring the exponential-backoff-with-jitter policy used throughout
// this module's stack.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy makes at most 3 attempts (the first call plus up
// to 2 retries) with a 200ms base delay capped at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
}

func (p RetryPolicy) computeBackoff(attempt int, rng *rand.Rand) time.Duration {
	d := p.BaseDelay * time.Duration(1<<uint(attempt))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	jitter := time.Duration(rng.Int63n(int64(p.BaseDelay) + 1))
	return d + jitter
}

// CallTimeout is the hard per-call timeout the Gateway enforces,
// independent of the run's soft max_time_seconds deadline.
const CallTimeout = 30 * time.Second

// Gateway is the module's only LLM boundary: everything above it talks
// to Chat/Embed, never to a vendor SDK type.
type Gateway struct {
	Chat        model.ChatModel
	Embed       model.EmbedModel
	Retry       RetryPolicy
	CallTimeout time.Duration
	Cost        *cost.Tracker

	rng *rand.Rand
}

// New returns a Gateway with the default retry policy and call timeout.
// chatModel must be non-nil; embedModel may be nil if the run never
// needs the semantic cache.
func New(chatModel model.ChatModel, embedModel model.EmbedModel, tracker *cost.Tracker) *Gateway {
	return &Gateway{
		Chat:        chatModel,
		Embed:       embedModel,
		Retry:       DefaultRetryPolicy(),
		CallTimeout: CallTimeout,
		Cost:        tracker,
		rng:         rand.New(rand.NewSource(1)),
	}
}

// ChatCall sends prompt to the chat model at temperature, retrying
// transient failures per Retry and enforcing CallTimeout on each
// attempt. ctx cancellation aborts the call immediately and is never
// retried.
func (g *Gateway) ChatCall(ctx context.Context, messages []model.Message, temperature float64, modelTag string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("gateway chat: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < g.Retry.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout())
		out, err := g.Chat.Chat(callCtx, messages, temperature, modelTag)
		cancel()

		if err == nil {
			if g.Cost != nil {
				g.Cost.RecordLLMCall(modelTag, out.InputTokens, out.OutputTokens, "")
			}
			return out.Text, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", fmt.Errorf("gateway chat: %w", ctx.Err())
		}
		if !isTransient(err) {
			return "", fmt.Errorf("gateway chat: %w", err)
		}

		backoff := g.Retry.computeBackoff(attempt, g.rngOrDefault())
		if isQuota(err) {
			// Quota errors (rate limits) clear slower than generic
			// transient failures, so back off harder before retrying.
			backoff *= 3
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", fmt.Errorf("gateway chat: %w", ctx.Err())
		}
	}

	return "", fmt.Errorf("gateway chat: exhausted %d attempts: %w", g.Retry.MaxAttempts, lastErr)
}

// EmbedCall embeds texts, returning ("no result") semantics via a nil,
// non-error return when Embed is unset — callers (the semantic cache)
// treat that exactly like an embedding failure: fall back to direct
// computation, not fatal.
func (g *Gateway) EmbedCall(ctx context.Context, texts []string, modelTag string) ([][]float64, error) {
	if g.Embed == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("gateway embed: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	vecs, err := g.Embed.Embed(callCtx, texts, modelTag)
	if err != nil {
		return nil, fmt.Errorf("gateway embed: %w", err)
	}
	return vecs, nil
}

func (g *Gateway) timeout() time.Duration {
	if g.CallTimeout <= 0 {
		return CallTimeout
	}
	return g.CallTimeout
}

func (g *Gateway) rngOrDefault() *rand.Rand {
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(1))
	}
	return g.rng
}

// isTransient classifies an error as retryable, per spec.md's four error
// classes (transient, quota, invalid, cancelled): context errors mean
// "stop now" and invalid-request errors mean "this will never succeed",
// so neither is worth a retry. Quota errors are transient in the sense
// that they clear on their own (see isQuota, which gets a longer
// backoff), but everything else defaults to retryable up to the
// policy's attempt budget.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !isInvalid(err)
}

// isInvalid reports whether err looks like a permanent, non-retryable
// request error (malformed input, bad credentials) rather than a
// transient upstream hiccup. Matches the substring-scan idiom the
// OpenAI adapter uses for its own isTransientError classification.
func isInvalid(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"invalid", "authentication", "unauthorized", "bad request", "malformed", "401", "403"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isQuota reports whether err looks like a rate-limit/quota error,
// which warrants a longer backoff than a generic transient failure.
func isQuota(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"rate limit", "too many requests", "quota", "429"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
