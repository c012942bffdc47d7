package herrors

import "testing"

func TestErrorCodeTaxonomy(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		kind  Kind
		phase string
	}{
		{"NAM001", NAM001, KindNameError, "resolver"},
		{"NAM002", NAM002, KindAmbiguityError, "resolver"},
		{"NAM003", NAM003, KindRedefinitionError, "resolver"},
		{"TYP003", TYP003, KindTypeError, "typecheck"},
		{"CIR001", CIR001, KindCIRValidationError, "cir"},
		{"AI002", AI002, KindAIOfflineMiss, "aiengine"},
		{"AI003", AI003, KindAIConfidenceTooLow, "aiengine"},
		{"LNK001", LNK001, KindLinkError, "link"},
		{"IO001", IO001, KindIOError, "io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, exists := Registry[tt.code]
			if !exists {
				t.Fatalf("error code %s not found in registry", tt.code)
			}
			if info.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", info.Kind, tt.kind)
			}
			if info.Phase != tt.phase {
				t.Errorf("Phase = %q, want %q", info.Phase, tt.phase)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindAIOfflineMiss, 3},
		{KindIOError, 2},
		{KindTypeError, 1},
		{KindCIRValidationError, 1},
	}
	for _, c := range cases {
		if got := ExitCode(c.kind); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestDiagnosticErrorString(t *testing.T) {
	d := New(AI003, "confidence 0.40 below threshold").
		WithHint("raise --ai-model quality or rewrite the intent text").
		WithSeverity(SevError)

	got := d.Error()
	if got == "" {
		t.Fatal("expected non-empty error string")
	}
	if d.Kind != KindAIConfidenceTooLow {
		t.Errorf("Kind = %v, want %v", d.Kind, KindAIConfidenceTooLow)
	}
}

func TestBagHaltsOnFirstError(t *testing.T) {
	var b Bag
	b.Add(New(NAM001, "unresolved identifier 'foo'").WithSeverity(SevError))
	b.Add(New(AI002, "info only").WithSeverity(SevInfo))

	if !b.HasErrors() {
		t.Fatal("expected HasErrors() to be true")
	}
	if err := b.Err(); err == nil {
		t.Fatal("expected non-nil error from bag")
	}
}
