package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShareLink_Usable(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		link ShareLink
		want bool
	}{
		{"open link, no expiry", ShareLink{}, true},
		{"future expiry", ShareLink{ExpiresAt: &future}, true},
		{"past expiry", ShareLink{ExpiresAt: &past}, false},
		{"expiry exactly now", ShareLink{ExpiresAt: &now}, false},
		{"revoked", ShareLink{IsRevoked: true}, false},
		{"revoked wins over future expiry", ShareLink{IsRevoked: true, ExpiresAt: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.link.Usable(now))
		})
	}
}

func TestPhoto_EffectiveDate(t *testing.T) {
	captured := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)
	uploaded := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	p := Photo{CapturedAt: &captured}
	p.CreatedAt = uploaded
	assert.Equal(t, captured, p.EffectiveDate())

	p.CapturedAt = nil
	assert.Equal(t, uploaded, p.EffectiveDate())
}
