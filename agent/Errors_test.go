package agent

import (
	"fmt"
	"math"
	"testing"
)

func TestErrorsWrapped(t *testing.T) {
	div := &NumericalDivergenceError{Op: "update", Quantity: "critic loss",
		Value: math.NaN()}
	if !IsNumericalDivergence(fmt.Errorf("run: %w", div)) {
		t.Error("wrapped divergence error not detected")
	}
	if IsConfiguration(div) {
		t.Error("divergence error detected as configuration error")
	}

	conf := NewConfigurationError("Tau", "must be in [0, 1], have(%v)", 2.0)
	if !IsConfiguration(fmt.Errorf("new: %w", conf)) {
		t.Error("wrapped configuration error not detected")
	}
	if want := "invalid configuration: Tau: must be in [0, 1], have(2)"; conf.Error() != want {
		t.Errorf("want %q have %q", want, conf.Error())
	}
}
