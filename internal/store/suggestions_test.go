package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
)

func seedProjectSuggestion(t *testing.T, s *Store) (*Project, *Suggestion) {
	t.Helper()
	p := &Project{Name: "acme", ConfigJSON: `{"audience":"devs"}`}
	require.NoError(t, s.CreateProject(p))
	sg := &Suggestion{
		ProjectID:   p.ID,
		Type:        "email_drip_campaign",
		Title:       "Launch drip campaign",
		Description: "Three-email onboarding sequence",
		Confidence:  85,
	}
	require.NoError(t, s.CreateSuggestion(sg))
	return p, sg
}

func TestCreateSuggestion_StartsPending(t *testing.T) {
	s := newTestStore(t)
	_, sg := seedProjectSuggestion(t, s)

	got, err := s.GetSuggestion(sg.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, SuggestionPending, got.Status)
	assert.Zero(t, got.ActedAt, "pending suggestions carry no acted_at")
	assert.Equal(t, 85, got.Confidence)
}

func TestApplyDecision_SetsStatusAndAudit(t *testing.T) {
	s := newTestStore(t)
	_, sg := seedProjectSuggestion(t, s)

	actedAt, err := s.ApplyDecision(sg.ID, "approve", SuggestionApproved, "good idea")
	require.NoError(t, err)
	assert.NotZero(t, actedAt)

	got, err := s.GetSuggestion(sg.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionApproved, got.Status)
	assert.Equal(t, actedAt, got.ActedAt, "acted_at set iff status is not pending")

	actions, err := s.ListActions(sg.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "approve", actions[0].Action)
	assert.Equal(t, "good idea", actions[0].Reason)
	assert.Equal(t, sg.ID, actions[0].SuggestionID)
}

func TestApplyDecision_NotFoundWritesNothing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ApplyDecision(4242, "approve", SuggestionApproved, "")
	assert.ErrorIs(t, err, mcerrors.ErrNotFound)

	var actionCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM suggestion_actions`).Scan(&actionCount))
	assert.Zero(t, actionCount, "failed decisions must write zero rows")
}

func TestApplyDecision_Redecision(t *testing.T) {
	s := newTestStore(t)
	_, sg := seedProjectSuggestion(t, s)

	// decline then approve is legal; final status reflects the latest action
	_, err := s.ApplyDecision(sg.ID, "decline", SuggestionDeclined, "not yet")
	require.NoError(t, err)
	_, err = s.ApplyDecision(sg.ID, "approve", SuggestionApproved, "changed my mind")
	require.NoError(t, err)

	got, err := s.GetSuggestion(sg.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionApproved, got.Status)

	actions, err := s.ListActions(sg.ID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "decline", actions[0].Action)
	assert.Equal(t, "approve", actions[1].Action)
}

func TestMarkExecuted(t *testing.T) {
	s := newTestStore(t)
	_, sg := seedProjectSuggestion(t, s)

	_, err := s.ApplyDecision(sg.ID, "approve", SuggestionApproved, "")
	require.NoError(t, err)

	require.NoError(t, s.MarkExecuted(sg.ID))

	got, err := s.GetSuggestion(sg.ID)
	require.NoError(t, err)
	assert.Equal(t, SuggestionExecuted, got.Status)
	assert.NotZero(t, got.ActedAt)

	assert.ErrorIs(t, s.MarkExecuted(999), mcerrors.ErrNotFound)
}

func TestGetSuggestionDetail_JoinsProject(t *testing.T) {
	s := newTestStore(t)
	p, sg := seedProjectSuggestion(t, s)

	d, err := s.GetSuggestionDetail(sg.ID)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, p.Name, d.ProjectName)
	assert.Equal(t, `{"audience":"devs"}`, d.ProjectConfig)
	assert.Equal(t, sg.Title, d.Title)

	missing, err := s.GetSuggestionDetail(999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestActiveSuggestions_SnoozeWindow(t *testing.T) {
	s := newTestStore(t)
	p := &Project{Name: "acme"}
	require.NoError(t, s.CreateProject(p))

	now := time.Now().UnixMilli()
	pending := &Suggestion{ProjectID: p.ID, Type: "content", Title: "pending", Confidence: 50, CreatedAt: now}
	recentSnooze := &Suggestion{ProjectID: p.ID, Type: "content", Title: "fresh-snooze", Confidence: 90, CreatedAt: now}
	oldSnooze := &Suggestion{ProjectID: p.ID, Type: "content", Title: "stale-snooze", Confidence: 99,
		CreatedAt: now - (25 * time.Hour).Milliseconds()}

	require.NoError(t, s.CreateSuggestion(pending))
	require.NoError(t, s.CreateSuggestion(recentSnooze))
	require.NoError(t, s.CreateSuggestion(oldSnooze))

	_, err := s.ApplyDecision(recentSnooze.ID, "snooze", SuggestionSnoozed, "revisit later")
	require.NoError(t, err)
	_, err = s.ApplyDecision(oldSnooze.ID, "snooze", SuggestionSnoozed, "revisit later")
	require.NoError(t, err)

	active, err := s.ActiveSuggestions(24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, active, 2)

	// Ordered by confidence desc; the snooze older than the window is excluded
	assert.Equal(t, "fresh-snooze", active[0].Title)
	assert.Equal(t, "pending", active[1].Title)
}

func TestActiveSuggestions_ExcludesActedStatuses(t *testing.T) {
	s := newTestStore(t)
	p := &Project{Name: "acme"}
	require.NoError(t, s.CreateProject(p))

	approved := &Suggestion{ProjectID: p.ID, Type: "content", Title: "approved"}
	declined := &Suggestion{ProjectID: p.ID, Type: "content", Title: "declined"}
	require.NoError(t, s.CreateSuggestion(approved))
	require.NoError(t, s.CreateSuggestion(declined))

	_, err := s.ApplyDecision(approved.ID, "approve", SuggestionApproved, "")
	require.NoError(t, err)
	_, err = s.ApplyDecision(declined.ID, "decline", SuggestionDeclined, "")
	require.NoError(t, err)

	active, err := s.ActiveSuggestions(24 * time.Hour)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPendingIffNoActedAt(t *testing.T) {
	s := newTestStore(t)
	p := &Project{Name: "acme"}
	require.NoError(t, s.CreateProject(p))

	for i := 0; i < 4; i++ {
		require.NoError(t, s.CreateSuggestion(&Suggestion{ProjectID: p.ID, Type: "content", Title: "s"}))
	}

	_, err := s.ApplyDecision(1, "approve", SuggestionApproved, "")
	require.NoError(t, err)
	_, err = s.ApplyDecision(2, "snooze", SuggestionSnoozed, "")
	require.NoError(t, err)

	var violations int
	require.NoError(t, s.db.QueryRow(`
		SELECT COUNT(*) FROM project_suggestions
		WHERE (status = 'pending' AND acted_at IS NOT NULL)
		   OR (status != 'pending' AND acted_at IS NULL)
	`).Scan(&violations))
	assert.Zero(t, violations, "status == pending iff acted_at is null")
}
