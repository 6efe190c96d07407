package store

import (
	"reflect"
	"testing"

	"github.com/zachittx/inoutboard/internal/roster"
)

func TestReconcile(t *testing.T) {
	defaults := []roster.Record{
		{ID: "a", Name: "A", Status: roster.StatusOut},
		{ID: "b", Name: "B", Status: roster.StatusOut},
	}

	tests := []struct {
		name      string
		persisted []roster.Record
		want      []roster.Record
	}{
		{
			name:      "empty persisted keeps defaults",
			persisted: nil,
			want:      defaults,
		},
		{
			name:      "matching record overwritten in place",
			persisted: []roster.Record{{ID: "b", Name: "B", Status: roster.StatusIn, UpdatedAt: 42}},
			want: []roster.Record{
				{ID: "a", Name: "A", Status: roster.StatusOut},
				{ID: "b", Name: "B", Status: roster.StatusIn, UpdatedAt: 42},
			},
		},
		{
			name: "new ids appended in persisted order",
			persisted: []roster.Record{
				{ID: "z", Name: "Z", Status: roster.StatusIn},
				{ID: "a", Name: "A", Status: roster.StatusIn, UpdatedAt: 7},
				{ID: "y", Name: "Y", Status: roster.StatusOut},
			},
			want: []roster.Record{
				{ID: "a", Name: "A", Status: roster.StatusIn, UpdatedAt: 7},
				{ID: "b", Name: "B", Status: roster.StatusOut},
				{ID: "z", Name: "Z", Status: roster.StatusIn},
				{ID: "y", Name: "Y", Status: roster.StatusOut},
			},
		},
		{
			name: "persisted name wins over default",
			persisted: []roster.Record{
				{ID: "a", Name: "Renamed", Status: roster.StatusOut},
			},
			want: []roster.Record{
				{ID: "a", Name: "Renamed", Status: roster.StatusOut},
				{ID: "b", Name: "B", Status: roster.StatusOut},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(defaults, tt.persisted)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reconcile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	defaults := []roster.Record{
		{ID: "a", Name: "A", Status: roster.StatusOut},
		{ID: "b", Name: "B", Status: roster.StatusOut},
	}
	persisted := []roster.Record{
		{ID: "c", Name: "C", Status: roster.StatusIn},
		{ID: "b", Name: "B", Status: roster.StatusIn, UpdatedAt: 1},
	}

	once := Reconcile(defaults, persisted)
	twice := Reconcile(defaults, once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Reconcile not idempotent:\n once  = %+v\n twice = %+v", once, twice)
	}
}

func TestReconcile_DoesNotMutateDefaults(t *testing.T) {
	defaults := []roster.Record{{ID: "a", Name: "A", Status: roster.StatusOut}}
	_ = Reconcile(defaults, []roster.Record{{ID: "a", Name: "A", Status: roster.StatusIn}})

	if defaults[0].Status != roster.StatusOut {
		t.Errorf("defaults mutated: %+v", defaults[0])
	}
}
