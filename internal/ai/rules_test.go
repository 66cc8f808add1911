package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_Extract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Entities
	}{
		{
			name: "weekday and 12h time",
			text: "I need to see a dentist next Friday at 3pm",
			want: Entities{DatePhrase: "next friday", TimePhrase: "at 3pm", Department: "Dentistry", Confidence: 0.99},
		},
		{
			name: "ordinal date with year",
			text: "Book cardiologist on 12th March 2026 at 10:30 am",
			want: Entities{DatePhrase: "12th march 2026", TimePhrase: "at 10:30 am", Department: "Cardiology", Confidence: 0.99},
		},
		{
			name: "no time",
			text: "heart checkup tomorrow please",
			want: Entities{DatePhrase: "tomorrow", Department: "Cardiology", Confidence: 0.8},
		},
		{
			name: "iso date and 24h time",
			text: "ENT appointment 2026-10-20 15:00",
			want: Entities{DatePhrase: "2026-10-20", TimePhrase: "15:00", Department: "ENT", Confidence: 0.99},
		},
		{
			name: "month first",
			text: "appointment with a physician on March 5th",
			want: Entities{DatePhrase: "march 5th", Department: "General Medicine", Confidence: 0.8},
		},
		{
			name: "numeric date",
			text: "skin rash, 10/20/2026 at 9am",
			want: Entities{DatePhrase: "10/20/2026", TimePhrase: "at 9am", Department: "Dermatology", Confidence: 0.99},
		},
		{
			name: "nothing",
			text: "hello there",
			want: Entities{Confidence: 0.5},
		},
		{
			name: "empty",
			want: Entities{Confidence: 0.5},
		},
	}

	r := NewRules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Extract(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		e    Entities
		want float64
	}{
		{Entities{}, 0.5},
		{Entities{DatePhrase: "x"}, 0.7},
		{Entities{TimePhrase: "x"}, 0.7},
		{Entities{Department: "x"}, 0.6},
		{Entities{DatePhrase: "x", TimePhrase: "x"}, 0.9},
		{Entities{DatePhrase: "x", Department: "x"}, 0.8},
		{Entities{DatePhrase: "x", TimePhrase: "x", Department: "x"}, 0.99},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Confidence(&tt.e), "%+v", tt.e)
	}
}
