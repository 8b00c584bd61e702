// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package workflow

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/skillswap/internal/audit"
	"github.com/ManuGH/skillswap/internal/domain/exchange/cancellation"
	"github.com/ManuGH/skillswap/internal/domain/exchange/completion"
	"github.com/ManuGH/skillswap/internal/domain/exchange/lifecycle"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/notify"
	"github.com/ManuGH/skillswap/internal/domain/exchange/review"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
)

const (
	u1 = "u1"
	u2 = "u2"

	cancelDescription = "Need to reschedule due to a conflicting commitment that arose unexpectedly."
)

type recorder struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (r *recorder) Enqueue(in notify.Intent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, in)
	return true
}

func (r *recorder) kinds(recipient string) []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Kind
	for _, in := range r.intents {
		if in.RecipientID == recipient {
			out = append(out, in.Kind)
		}
	}
	return out
}

type harness struct {
	ctrl  *Controller
	store store.Store
	notes *recorder
	audit *bytes.Buffer
	now   time.Time
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{notes: &recorder{}, audit: &bytes.Buffer{}, now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	return h.build(t, store.NewMemoryStore(), opts)
}

func (h *harness) build(t *testing.T, st store.Store, opts Options) *harness {
	t.Helper()
	h.store = st
	opts.Notifier = h.notes
	opts.Audit = audit.NewLoggerWith(zerolog.New(h.audit))
	nop := zerolog.Nop()
	opts.Logger = &nop

	ctrl, err := New(st, opts)
	require.NoError(t, err)
	ctrl.SetClock(func() time.Time { return h.now })
	h.ctrl = ctrl
	return h
}

func (h *harness) session(t *testing.T, id string) *model.Session {
	t.Helper()
	s, err := h.ctrl.CreateSession(context.Background(), u1, CreateInput{
		ID:           id,
		ParticipantA: u1,
		ParticipantB: u2,
		TermsA:       model.Terms{SkillID: "go"},
		TermsB:       model.Terms{Service: "logo design"},
	})
	require.NoError(t, err)
	return s
}

func (h *harness) complete(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := h.ctrl.RequestCompletion(ctx, id, u1)
	require.NoError(t, err)
	_, err = h.ctrl.RespondToCompletion(ctx, id, u2, completion.Approve, "")
	require.NoError(t, err)
}

func requireKind(t *testing.T, err error, want error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, want)
	werr, ok := lifecycle.As(err)
	require.True(t, ok, "expected workflow error, got %v", err)
	if code != "" {
		assert.Equal(t, code, werr.Code)
	}
}

func TestScenarioA_DuplicateCompletionRequest(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()

	res, err := h.ctrl.RequestCompletion(ctx, "s1", u1)
	require.NoError(t, err)
	assert.Equal(t, u1, res.Session.CompletionRequestedBy)
	assert.Equal(t, model.CompletionRequested, res.Session.Completion)
	require.NotNil(t, res.Request)
	assert.Equal(t, model.CompletionPending, res.Request.Status)
	assert.Contains(t, h.notes.kinds(u2), notify.KindCompletionRequested)

	_, err = h.ctrl.RequestCompletion(ctx, "s1", u1)
	requireKind(t, err, lifecycle.ErrStateConflict, lifecycle.ForbiddenCompletionPending)
	werr, _ := lifecycle.As(err)
	assert.Equal(t, lifecycle.FieldCompletionRequestedBy, werr.Field)
}

func TestScenarioB_ApprovalCompletesAndRunsHooks(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()

	_, err := h.ctrl.RequestCompletion(ctx, "s1", u1)
	require.NoError(t, err)
	res, err := h.ctrl.RespondToCompletion(ctx, "s1", u2, completion.Approve, "")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, res.Session.Status)
	assert.Equal(t, u2, res.Session.CompletionApprovedBy)
	assert.Equal(t, model.CompletionApproved, res.Request.Status)

	for _, user := range []string{u1, u2} {
		badges, err := h.ctrl.ListBadges(ctx, user)
		require.NoError(t, err)
		require.Len(t, badges, 1, "user %s", user)
		assert.Equal(t, model.BadgeFirstExchange, badges[0].ID)

		kinds := h.notes.kinds(user)
		assert.Contains(t, kinds, notify.KindReviewEligible)
		assert.Contains(t, kinds, notify.KindBadgeGranted)
	}
	assert.Contains(t, h.notes.kinds(u1), notify.KindCompletionApproved)
	assert.Contains(t, h.audit.String(), `"event_type":"session.transition"`)
	assert.Contains(t, h.audit.String(), `"event_type":"badge.granted"`)

	history, err := h.ctrl.ListCompletionRequests(ctx, "s1", u1)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestScenarioC_DuplicateCancelRequest(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()
	in := cancellation.RequestInput{Reason: model.ReasonScheduleConflict, Description: cancelDescription}

	res, err := h.ctrl.RequestCancellation(ctx, "s1", u1, in)
	require.NoError(t, err)
	assert.Equal(t, model.ResponsePending, res.Request.ResponseStatus)
	assert.Equal(t, model.CancellationPending, res.Session.Cancellation)
	assert.Contains(t, h.notes.kinds(u2), notify.KindCancellationRequested)

	_, err = h.ctrl.RequestCancellation(ctx, "s1", u1, in)
	requireKind(t, err, lifecycle.ErrStateConflict, lifecycle.ForbiddenCancellationOpen)

	current, err := h.ctrl.CurrentCancelRequest(ctx, "s1", u2)
	require.NoError(t, err)
	assert.Equal(t, res.Request.ID, current.ID)
}

func TestScenarioD_AgreeCancels(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()

	_, err := h.ctrl.RequestCancellation(ctx, "s1", u1, cancellation.RequestInput{Reason: model.ReasonScheduleConflict, Description: cancelDescription})
	require.NoError(t, err)

	_, err = h.ctrl.RespondToCancellation(ctx, "s1", u1, cancellation.ResponseInput{Decision: cancellation.Agree})
	requireKind(t, err, lifecycle.ErrAuthorization, lifecycle.CodeNotCounterparty)

	res, err := h.ctrl.RespondToCancellation(ctx, "s1", u2, cancellation.ResponseInput{
		Decision:    cancellation.Agree,
		Description: "Understood, agreeing to cancel.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, res.Session.Status)
	assert.Equal(t, model.ResponseAgreed, res.Request.ResponseStatus)
	assert.Equal(t, model.ResolutionCanceled, res.Request.Resolution)
	assert.Contains(t, h.notes.kinds(u1), notify.KindCancellationAgreed)

	_, err = h.ctrl.RequestCompletion(ctx, "s1", u1)
	requireKind(t, err, lifecycle.ErrStateConflict, lifecycle.ForbiddenTerminalAbsorbing)

	current, err := h.ctrl.CurrentCancelRequest(ctx, "s1", u1)
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionCanceled, current.Resolution)
}

func TestScenarioE_DisputeThenFinalize(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()

	_, err := h.ctrl.RequestCancellation(ctx, "s1", u1, cancellation.RequestInput{Reason: model.ReasonScheduleConflict, Description: cancelDescription})
	require.NoError(t, err)

	_, err = h.ctrl.RespondToCancellation(ctx, "s1", u2, cancellation.ResponseInput{
		Decision:    cancellation.Dispute,
		Description: "I've done 60% of the work",
	})
	requireKind(t, err, lifecycle.ErrValidation, cancellation.CodePercentageRequired)

	pct := 60
	res, err := h.ctrl.RespondToCancellation(ctx, "s1", u2, cancellation.ResponseInput{
		Decision:                 cancellation.Dispute,
		Description:              "I've done 60% of the work",
		WorkCompletionPercentage: &pct,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ResponseDisputed, res.Request.ResponseStatus)
	assert.Equal(t, model.StatusActive, res.Session.Status)
	assert.Equal(t, model.CancellationDisputed, res.Session.Cancellation)

	_, err = h.ctrl.FinalizeCancellation(ctx, "s1", u2, "not mine to close")
	requireKind(t, err, lifecycle.ErrAuthorization, lifecycle.CodeNotInitiator)

	res, err = h.ctrl.FinalizeCancellation(ctx, "s1", u1, "Agreed to close given partial work")
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionCanceled, res.Request.Resolution)
	assert.Equal(t, "Agreed to close given partial work", res.Request.FinalNote)
	assert.Equal(t, model.StatusCanceled, res.Session.Status)
	assert.Contains(t, h.notes.kinds(u2), notify.KindCancellationFinalized)
}

func TestScenarioF_OneReviewPerReviewer(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()

	_, err := h.ctrl.SubmitReview(ctx, "s1", u2, review.Input{Rating: 5, Comment: "Great mentor"})
	requireKind(t, err, lifecycle.ErrStateConflict, lifecycle.ForbiddenSessionNotCompleted)

	h.complete(t, "s1")

	r, err := h.ctrl.SubmitReview(ctx, "s1", u2, review.Input{Rating: 5, Comment: "Great mentor"})
	require.NoError(t, err)
	assert.Equal(t, u1, r.RevieweeID)

	_, err = h.ctrl.SubmitReview(ctx, "s1", u2, review.Input{Rating: 4, Comment: "Second thoughts"})
	requireKind(t, err, lifecycle.ErrStateConflict, review.CodeAlreadyReviewed)

	_, err = h.ctrl.SubmitReview(ctx, "s1", u1, review.Input{Rating: 0, Comment: "x"})
	requireKind(t, err, lifecycle.ErrValidation, review.CodeRatingOutOfRange)

	list, err := h.ctrl.ListReviews(ctx, "s1", u1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGuardOrder(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()

	_, err := h.ctrl.RequestCompletion(ctx, "missing", u1)
	requireKind(t, err, lifecycle.ErrNotFound, lifecycle.CodeSessionNotFound)

	_, err = h.ctrl.RequestCompletion(ctx, "s1", "u3")
	requireKind(t, err, lifecycle.ErrAuthorization, lifecycle.CodeNotParticipant)

	// An outsider with malformed input still gets the authorization error.
	_, err = h.ctrl.RespondToCompletion(ctx, "s1", "u3", completion.Decision("maybe"), "")
	requireKind(t, err, lifecycle.ErrAuthorization, lifecycle.CodeNotParticipant)

	_, err = h.ctrl.RespondToCompletion(ctx, "s1", u2, completion.Decision("maybe"), "")
	requireKind(t, err, lifecycle.ErrValidation, cancellation.CodeInvalidDecision)

	// Phase is checked before input validation.
	_, err = h.ctrl.RespondToCompletion(ctx, "s1", u2, completion.Reject, string(make([]byte, 5000)))
	requireKind(t, err, lifecycle.ErrStateConflict, lifecycle.ForbiddenNoCompletionRequest)

	_, err = h.ctrl.GetSession(ctx, "s1", "u3")
	requireKind(t, err, lifecycle.ErrAuthorization, lifecycle.CodeNotParticipant)

	assert.Contains(t, h.audit.String(), `"event_type":"session.transition.denied"`)
}

func TestCooldownRoundTrip(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()

	_, err := h.ctrl.RequestCompletion(ctx, "s1", u1)
	require.NoError(t, err)
	res, err := h.ctrl.RespondToCompletion(ctx, "s1", u2, completion.Reject, "not finished yet")
	require.NoError(t, err)
	assert.Equal(t, model.CompletionNone, res.Session.Completion)
	assert.Equal(t, u2, res.Session.CompletionRejectedBy)
	assert.Contains(t, h.notes.kinds(u1), notify.KindCompletionRejected)

	h.now = h.now.Add(time.Hour)
	_, err = h.ctrl.RequestCompletion(ctx, "s1", u1)
	requireKind(t, err, lifecycle.ErrStateConflict, completion.CodeCooldown)

	// The rejecting participant is not blocked.
	_, err = h.ctrl.RequestCompletion(ctx, "s1", u2)
	require.NoError(t, err)
	_, err = h.ctrl.RespondToCompletion(ctx, "s1", u1, completion.Reject, "")
	require.NoError(t, err)

	// u1's block outlives the later rejection of u2's proposal.
	h.now = h.now.Add(2 * time.Minute)
	_, err = h.ctrl.RequestCompletion(ctx, "s1", u1)
	requireKind(t, err, lifecycle.ErrStateConflict, completion.CodeCooldown)

	h.now = h.now.Add(model.DefaultCompletionCooldown)
	_, err = h.ctrl.RequestCompletion(ctx, "s1", u2)
	require.NoError(t, err)
}

func TestCreateSessionValidation(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	end := h.now.Add(-time.Hour)

	tests := []struct {
		name  string
		actor string
		in    CreateInput
		want  error
		code  string
	}{
		{name: "missing participant", actor: u1, in: CreateInput{ParticipantA: u1}, want: lifecycle.ErrValidation, code: CodeParticipantRequired},
		{name: "same participant", actor: u1, in: CreateInput{ParticipantA: u1, ParticipantB: u1}, want: lifecycle.ErrValidation, code: CodeSameParticipant},
		{name: "outsider", actor: "u3", in: CreateInput{ParticipantA: u1, ParticipantB: u2}, want: lifecycle.ErrAuthorization, code: lifecycle.CodeNotParticipant},
		{name: "end before start", actor: u1, in: CreateInput{ParticipantA: u1, ParticipantB: u2, StartDate: h.now, ExpectedEndDate: &end}, want: lifecycle.ErrValidation, code: CodeInvalidDates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.ctrl.CreateSession(ctx, tt.actor, tt.in)
			requireKind(t, err, tt.want, tt.code)
		})
	}

	h.session(t, "dup")
	_, err := h.ctrl.CreateSession(ctx, u2, CreateInput{ID: "dup", ParticipantA: u1, ParticipantB: u2})
	requireKind(t, err, lifecycle.ErrStateConflict, CodeSessionExists)
}

func TestMentorBadgeFollowsPolicy(t *testing.T) {
	policy := model.DefaultPolicy()
	policy.Thresholds = map[model.BadgeID]int{model.BadgeMentor: 2}
	h := newHarness(t, Options{Policy: policy})
	ctx := context.Background()

	h.session(t, "s1")
	h.complete(t, "s1")
	h.session(t, "s2")
	h.complete(t, "s2")

	has := func(user string, id model.BadgeID) bool {
		badges, err := h.ctrl.ListBadges(ctx, user)
		require.NoError(t, err)
		for _, b := range badges {
			if b.ID == id {
				return true
			}
		}
		return false
	}
	assert.True(t, has(u1, model.BadgeMentor), "slot A provides")
	assert.False(t, has(u2, model.BadgeMentor))

	policy.MentorRule = model.MentorByOfferedSkill
	require.NoError(t, h.ctrl.ApplyPolicy(policy))
	assert.Equal(t, model.MentorByOfferedSkill, h.ctrl.Policy().MentorRule)

	bad := policy
	bad.MaxReviewComment = 0
	assert.Error(t, h.ctrl.ApplyPolicy(bad))
	assert.Equal(t, 1000, h.ctrl.Policy().MaxReviewComment)
}

type failingGrants struct {
	store.Store
}

func (failingGrants) GrantBadge(context.Context, model.BadgeGrant) (bool, error) {
	return false, errors.New("grant table locked")
}

func TestBadgeFailureDoesNotFailCompletion(t *testing.T) {
	h := &harness{notes: &recorder{}, audit: &bytes.Buffer{}, now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	h.build(t, failingGrants{Store: store.NewMemoryStore()}, Options{})
	h.session(t, "s1")

	h.complete(t, "s1")

	s, err := h.ctrl.GetSession(context.Background(), "s1", u1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, s.Status)
	assert.Contains(t, h.notes.kinds(u1), notify.KindReviewEligible)
	assert.NotContains(t, h.notes.kinds(u1), notify.KindBadgeGranted)
}

func TestRecordActivity(t *testing.T) {
	policy := model.DefaultPolicy()
	policy.Thresholds = map[model.BadgeID]int{model.BadgeSkillMaster: 2}
	h := newHarness(t, Options{Policy: policy, ServiceActors: []string{"verifier"}})
	ctx := context.Background()

	ev := model.ActivityEvent{UserID: u1, Kind: model.ActivitySkillVerified, RefID: "skill-1"}

	_, err := h.ctrl.RecordActivity(ctx, u2, ev)
	requireKind(t, err, lifecycle.ErrAuthorization, CodeNotActivityOwner)

	_, err = h.ctrl.RecordActivity(ctx, u1, model.ActivityEvent{UserID: u1, Kind: "liked_post", RefID: "p"})
	requireKind(t, err, lifecycle.ErrValidation, CodeInvalidActivity)

	res, err := h.ctrl.RecordActivity(ctx, u1, ev)
	require.NoError(t, err)
	assert.True(t, res.Recorded)
	assert.Empty(t, res.Granted)

	res, err = h.ctrl.RecordActivity(ctx, u1, ev)
	require.NoError(t, err)
	assert.False(t, res.Recorded, "replayed event")

	ev.RefID = "skill-2"
	res, err = h.ctrl.RecordActivity(ctx, "verifier", ev)
	require.NoError(t, err)
	require.Len(t, res.Granted, 1)
	assert.Equal(t, model.BadgeSkillMaster, res.Granted[0].BadgeID)
	assert.Contains(t, h.notes.kinds(u1), notify.KindBadgeGranted)
}

func TestConcurrentApprovalsHaveOneWinner(t *testing.T) {
	h := newHarness(t, Options{})
	h.session(t, "s1")
	ctx := context.Background()
	_, err := h.ctrl.RequestCompletion(ctx, "s1", u1)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		failures []error
	)
	decisions := []completion.Decision{completion.Approve, completion.Reject, completion.Approve, completion.Reject}
	for _, d := range decisions {
		wg.Add(1)
		go func(d completion.Decision) {
			defer wg.Done()
			_, err := h.ctrl.RespondToCompletion(ctx, "s1", u2, d, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			failures = append(failures, err)
		}(d)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	for _, err := range failures {
		assert.ErrorIs(t, err, lifecycle.ErrStateConflict)
	}
}
