package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRecorder(t *testing.T) *GormRecorder {
	t.Helper()
	db, err := SetupDatabase("sqlite://:memory:?cache=shared", 1)
	if err != nil {
		t.Fatal(err)
	}
	gr, err := NewGormRecorder(db)
	if err != nil {
		t.Fatal(err)
	}
	return gr
}

func TestGormRecorderRoundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	gr := testRecorder(t)

	gr.Record(ctx, &ContentRecord{
		Fingerprint: "abc123",
		Modality:    "text",
		Decision:    "FLAG",
		SafetyScore: 55,
		Flags:       JoinFlags([]string{"violence", "hate_speech"}),
		Provider:    "ensemble(3)",
		ElapsedMS:   12,
	})
	gr.Record(ctx, &ContentRecord{
		Fingerprint: "abc123",
		Modality:    "text",
		Decision:    "ALLOW",
		SafetyScore: 92,
		Provider:    "ensemble(2)",
	})
	gr.Record(ctx, &ContentRecord{
		Fingerprint: "other",
		Modality:    "image",
		Decision:    "ESCALATE",
		SafetyScore: 5,
	})

	recs, err := gr.Recent(ctx, "abc123", 10)
	assert.NoError(err)
	assert.Len(recs, 2)
	// newest first
	assert.Equal("ALLOW", recs[0].Decision)
	assert.Equal("FLAG", recs[1].Decision)
	assert.Equal("violence,hate_speech", recs[1].Flags)

	all, err := gr.Recent(ctx, "", 10)
	assert.NoError(err)
	assert.Len(all, 3)
}

func TestSetupDatabaseRejectsUnknownScheme(t *testing.T) {
	assert := assert.New(t)

	_, err := SetupDatabase("mysql://nope", 4)
	assert.Error(err)
}
