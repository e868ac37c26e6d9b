// Package solver implements functionality to wrap Gorgonia Solvers
// so that they can be JSON serialized into configuraiton files.
package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// ErrInvalidSolver is returned when a solver configuration cannot be
// used to create a solver
var ErrInvalidSolver = errors.New("invalid solver configuration")

var registered = map[string]reflect.Type{
	string(Vanilla): reflect.TypeOf(VanillaConfig{}),
	string(Adam):    reflect.TypeOf(AdamConfig{}),
	string(RMSProp): reflect.TypeOf(RMSPropConfig{}),
}

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newSolver: %w", err)
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// Parse returns a Solver of the type with the given case-insensitive
// name, using default values for all hyperparameters other than the
// step size and batch size
func Parse(name string, stepSize float64, batchSize int) (*Solver, error) {
	switch strings.ToLower(name) {
	case strings.ToLower(string(Adam)):
		return NewDefaultAdam(stepSize, batchSize)
	case strings.ToLower(string(RMSProp)):
		return NewDefaultRMSProp(stepSize, batchSize)
	case strings.ToLower(string(Vanilla)):
		return NewVanilla(stepSize, batchSize, -1.0)
	}
	return nil, fmt.Errorf("parse: %w: unknown solver %q", ErrInvalidSolver,
		name)
}

// New returns a new Gorgonia Solver described by the Solver's Config.
// The returned Gorgonia Solver shares no state with s, so that one
// Solver configuration can be used to train many networks.
func (s *Solver) New() G.Solver {
	return s.Config.Create()
}

// WithLearnRate returns a copy of s with its step size changed to
// stepSize. The receiver is not modified.
func (s *Solver) WithLearnRate(stepSize float64) (*Solver, error) {
	return newSolver(s.Type, s.Config.WithLearnRate(stepSize))
}

// WithType returns a Solver of type t with the same step size and
// batch size as s, and default values for all other hyperparameters
func (s *Solver) WithType(t string) (*Solver, error) {
	return Parse(t, s.LearnRate(), s.BatchSize())
}

func (s *Solver) String() string {
	return fmt.Sprintf("%v(%v)", s.Type, s.LearnRate())
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config",
		registered)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("unmarshaljson: %w", err)
	}

	s.Type = typeName
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalconfig: missing field %q",
			typeJsonField)
	}
	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalconfig: unknown solver %q",
			typeName)
	}
	value := reflect.New(ty).Interface()

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}
	if err = json.Unmarshal(valueBytes, value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// Validate returns an error wrapping ErrInvalidSolver if the
	// configuration cannot create a solver
	Validate() error

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	LearnRate() float64
	BatchSize() int

	// WithLearnRate returns a copy of the Config with a new step size
	WithLearnRate(float64) Config
}

func errInvalid(reason string) error {
	return fmt.Errorf("%w: %v", ErrInvalidSolver, reason)
}

// validateCommon validates the hyperparameters common to all solvers
func validateCommon(stepSize float64, batch int) error {
	if stepSize <= 0 || math.IsNaN(stepSize) || math.IsInf(stepSize, 0) {
		return errInvalid(fmt.Sprintf("step size must be positive and "+
			"finite, have(%v)", stepSize))
	}
	if batch < 1 {
		return errInvalid(fmt.Sprintf("batch size must be positive, "+
			"have(%v)", batch))
	}
	return nil
}
