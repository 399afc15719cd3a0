package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	ev := &Event{src: 4, dst: 1, tag: TagVmCreateAck}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"any", Any, true},
		{"none", None, false},
		{"type matches one of", TypeIs(TagVmCreate, TagVmCreateAck), true},
		{"type differs", TypeIs(TagVmCreate), false},
		{"type is not", TypeIsNot(TagVmCreate), true},
		{"type is not excluded", TypeIsNot(TagVmCreateAck), false},
		{"from source", FromSource(3, 4), true},
		{"from other source", FromSource(3), false},
		{"func", PredicateFunc(func(e *Event) bool { return e.Destination() == 1 }), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Match(ev))
		})
	}
}

func TestTypeIs_CopiesTags(t *testing.T) {
	tags := []Tag{TagVmMigrate}
	p := TypeIs(tags...)
	tags[0] = TagVmCreate
	assert.True(t, p.Match(&Event{tag: TagVmMigrate}))
}
