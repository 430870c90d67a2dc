package domain

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "sacredsound/internal/platform/errors"
)

func TestRecordKey(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: `{"id":"session-1"}`, want: "session-1"},
		{raw: `{"id":42}`, want: "42"},
		{raw: `{"id":""}`, wantErr: true},
		{raw: `{"id":null}`, wantErr: true},
		{raw: `{"name":"x"}`, wantErr: true},
		{raw: `{"id":true}`, wantErr: true},
		{raw: `[1,2]`, wantErr: true},
	}
	for _, tc := range cases {
		got, err := RecordKey(json.RawMessage(tc.raw))
		if tc.wantErr {
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Fatalf("RecordKey(%s) err = %v, want ErrInvalidInput", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("RecordKey(%s): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("RecordKey(%s) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseCollection(t *testing.T) {
	t.Parallel()
	c, err := ParseCollection("sessions")
	if err != nil || c != CollectionSessions {
		t.Fatalf("ParseCollection(sessions) = %q, %v", c, err)
	}
	if _, err := ParseCollection("syncQueue"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("syncQueue is not a data collection, got %v", err)
	}
	if CollectionAchievements.Valid() != true || Collection("nope").Valid() {
		t.Fatalf("unexpected Valid results")
	}
}
