package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectType_Accepts(t *testing.T) {
	tests := []struct {
		subject SubjectType
		kind    ReactionKind
		want    bool
	}{
		{SubjectPost, KindLike, true},
		{SubjectComment, KindAngry, true},
		{SubjectPost, KindMasterpiece, false},
		{SubjectComment, KindAwful, false},
		{SubjectPost, "meh", false},
		{"movie", KindLike, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.subject)+"/"+string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.subject.Accepts(tt.kind))
		})
	}
}
