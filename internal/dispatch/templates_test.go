package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcerrors "github.com/openclaw/mission-control/internal/errors"
)

func TestResolveTemplate_Known(t *testing.T) {
	for _, typ := range []string{"email_drip_campaign", "linkedin_posts", "competitor_analysis", "seo_audit", "newsletter_digest"} {
		tmpl, err := ResolveTemplate(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, typ, tmpl.Type)
		assert.NotEmpty(t, tmpl.Steps, "every template has ordered steps")
		for _, step := range tmpl.Steps {
			assert.NotEmpty(t, step.Type)
			assert.NotEmpty(t, step.Description)
		}
	}
}

func TestResolveTemplate_Unknown(t *testing.T) {
	_, err := ResolveTemplate("blocked")
	assert.ErrorIs(t, err, mcerrors.ErrUnknownType)
	assert.Contains(t, err.Error(), "blocked")
}

func TestKnownTypes(t *testing.T) {
	types := KnownTypes()
	assert.Len(t, types, 5)
	assert.Contains(t, types, "email_drip_campaign")
}
