package experiment

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/discretesac/environment"
	"github.com/samuelfneumann/discretesac/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/discretesac/environment/toy"
)

// Names of environments which can be created with NewEnvironment
const (
	CartpoleName = "CartPole-v1"
	TwoStateName = "TwoState"
)

// creators maps the lower case name of each environment to a function
// which creates it
var creators = map[string]func(episodeSteps int,
	seed uint64) environment.Environment{
	strings.ToLower(CartpoleName): func(episodeSteps int,
		seed uint64) environment.Environment {
		if episodeSteps == 0 {
			episodeSteps = cartpole.EpisodeSteps
		}
		return cartpole.New(episodeSteps, seed)
	},
	strings.ToLower(TwoStateName): func(episodeSteps int,
		seed uint64) environment.Environment {
		if episodeSteps == 0 {
			episodeSteps = toy.EpisodeSteps
		}
		return toy.NewTwoState(episodeSteps, seed)
	},
}

// IsEnvironment returns whether an environment called name exists.
// Names are case insensitive.
func IsEnvironment(name string) bool {
	_, ok := creators[strings.ToLower(name)]
	return ok
}

// NewEnvironment creates the environment called name. Episodes are
// truncated after episodeSteps steps, or after the environment's
// default number of steps if episodeSteps is 0.
func NewEnvironment(name string, episodeSteps int,
	seed uint64) (environment.Environment, error) {
	create, ok := creators[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("newenvironment: no such environment %q",
			name)
	}
	return create(episodeSteps, seed), nil
}
