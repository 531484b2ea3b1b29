package xapi

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/recenseo/pkg/models"
)

// ProgressSink receives one notification per fetched page with the
// cumulative member count. Calls are fire-and-forget: the engine never
// inspects a result and never blocks its pacing on the sink.
type ProgressSink interface {
	OnPage(fetched int)
}

// memberSource is the one-page fetch the engine drives. *Client implements
// it; tests script their own sequences.
type memberSource interface {
	ListMembers(ctx context.Context, listID string, count int, cursor string) ([]models.MemberRecord, string, error)
}

// pageState models the pagination loop explicitly so each termination guard
// is independently testable.
type pageState int

const (
	stateStart pageState = iota
	stateFetching
	stateStalled
	stateExhausted
	stateFailed
)

// Paginator drives cursor pagination to exhaustion, strictly sequentially.
// The shared browser session cannot carry concurrent requests, and the fixed
// inter-page delay is itself the rate-limiting discipline.
type Paginator struct {
	source   memberSource
	pageSize int
	limiter  *rate.Limiter
	logger   arbor.ILogger
}

// NewPaginator creates a pagination engine. pageDelay is the fixed pacing
// floor between page requests; it is a constant, not a backoff.
func NewPaginator(source memberSource, pageSize int, pageDelay time.Duration, logger arbor.ILogger) *Paginator {
	return &Paginator{
		source:   source,
		pageSize: pageSize,
		// Burst 1 lets the first page go immediately; every following
		// request waits out the fixed floor.
		limiter: rate.NewLimiter(rate.Every(pageDelay), 1),
		logger:  logger,
	}
}

// CollectAll accumulates every member of the list in response order. Any
// page failure aborts the whole run: a silently dropped page would corrupt
// the member count, and partial exports are not a thing at this level.
//
// Duplicate member ids across pages are kept as delivered; the platform's
// pagination is not strictly exclusive under concurrent list mutation and
// dedup is a consumer decision.
func (p *Paginator) CollectAll(ctx context.Context, listID string, sink ProgressSink) ([]models.MemberRecord, error) {
	var members []models.MemberRecord
	cursor := ""
	pages := 0
	state := stateStart

	for state == stateStart || state == stateFetching {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, next, err := p.source.ListMembers(ctx, listID, p.pageSize, cursor)
		if err != nil {
			return nil, err
		}
		pages++
		members = append(members, page...)

		if sink != nil {
			sink.OnPage(len(members))
		}

		p.logger.Debug().
			Int("page", pages).
			Int("page_members", len(page)).
			Int("total_members", len(members)).
			Msg("Fetched member page")

		state = nextPageState(len(page), cursor, next)
		cursor = next
	}

	if state == stateStalled {
		p.logger.Warn().
			Str("cursor", cursor).
			Int("pages", pages).
			Msg("Pagination stalled on repeated cursor, stopping")
	}

	p.logger.Info().
		Str("list_id", listID).
		Int("pages", pages).
		Int("members", len(members)).
		Msg("Member collection complete")

	return members, nil
}

// nextPageState applies the termination guards in order: no continuation
// cursor, empty page (the upstream can return an empty page with a cursor
// that never terminates), and repeated cursor (anti-infinite-loop rule: a
// consumed cursor is never sent twice).
func nextPageState(pageLen int, consumed, next string) pageState {
	switch {
	case next == "":
		return stateExhausted
	case pageLen == 0:
		return stateExhausted
	case next == consumed:
		return stateStalled
	default:
		return stateFetching
	}
}
