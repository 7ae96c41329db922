package builtins

import (
	"time"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// installTemporalStub defines a minimal `Temporal.Now.instant()` seam
// gated by config.FeatureFlags.EnableTemporalStub, per SPEC_FULL.md's
// Non-goals: the full Temporal proposal (durations, calendars,
// timezone-aware arithmetic) is explicitly out of scope, but scripts
// probing for Temporal's existence (a common feature-detection pattern)
// should see a plausibly-shaped object rather than a ReferenceError.
func installTemporalStub(in *interner.Interner, objectProto *value.Object, global *value.Object) {
	temporal := value.New(objectProto)
	now := value.New(objectProto)

	Def(in, now, "instant", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		inst := value.New(objectProto)
		inst.InternalData = time.Now().UTC()
		Def(in, inst, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
			t, _ := this.AsObject().InternalData.(time.Time)
			return value.Str(t.Format(time.RFC3339Nano)), nil
		})
		Def(in, inst, "epochMilliseconds", 0, func(this value.Value, args []value.Value) (value.Value, error) {
			t, _ := this.AsObject().InternalData.(time.Time)
			return value.Number(float64(t.UnixMilli())), nil
		})
		return value.ObjectValue(inst), nil
	})

	temporal.DefineDataProperty(in.Intern("Now"), value.ObjectValue(now), value.AttrConfigurable)
	global.DefineDataProperty(in.Intern("Temporal"), value.ObjectValue(temporal), value.AttrWritable|value.AttrConfigurable)
}
