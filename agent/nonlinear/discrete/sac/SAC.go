// Package sac implements the Soft Actor-Critic algorithm for discrete
// actions.
package sac

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/discretesac/agent"
	"github.com/samuelfneumann/discretesac/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/discretesac/expreplay"
	"github.com/samuelfneumann/discretesac/network"
	"github.com/samuelfneumann/discretesac/utils/floatutils"
	"github.com/samuelfneumann/discretesac/utils/op"
)

// Names of the losses returned by Losses()
const (
	CriticLoss = "Critic loss"
	PolicyLoss = "Policy loss"
	AlphaLoss  = "Alpha loss"
	Alpha      = "Alpha"
)

// SAC implements discrete-action Soft Actor-Critic. The agent learns
// two critics, each with a target network that tracks it with Polyak
// averaging, a categorical policy, and optionally the entropy
// temperature α.
//
// Each network that must compute on a different batch or input lives in
// its own computational graph with its own VM:
//
//	behaviour	policy with batch 1 for selecting actions
//	policyNet	policy with batch B which is trained
//	nextPolicy	policy with batch B for the next-state distribution
//	critics		both online critics which share an input, trained
//	targets		one graph per target critic with batch B
//
// After each learning step, the weights of the behaviour and next-state
// policies are set to those of policyNet.
type SAC struct {
	// Action selection
	behaviour *policy.CategoricalMLP

	// Policy learning
	policyNet    network.NeuralNet
	policyVM     G.VM
	policySolver G.Solver
	minQ         *G.Node // Input: min_j Q_j(s, ·)
	alphaInput   *G.Node // Input: α
	policyLoss   G.Value
	logProbs     G.Value

	// Next state action distribution for the critic targets
	nextPolicy   network.NeuralNet
	nextPolicyVM G.VM

	// Critic learning
	critics       [2]network.NeuralNet
	criticVM      G.VM
	criticSolver  G.Solver
	criticModel   []G.ValueGrad
	actions       *G.Node // Input: one-hot actions taken
	criticTargets *G.Node // Input: regression targets y
	criticLoss    G.Value
	minQVal       G.Value

	targets   [2]network.NeuralNet
	targetVMs [2]G.VM

	// Entropy temperature
	learnAlpha    bool
	alpha         float64
	logAlpha      *G.Node
	alphaVM       G.VM
	alphaSolver   G.Solver
	entropyError  *G.Node // Input: mean_b Σ π (log π + H̄)
	alphaLoss     G.Value
	targetEntropy float64

	// Hyperparameters
	discount        float64
	tau             float64
	targetUpdate    int
	updateFrequency int
	batchSize       int
	numActions      int
	features        int
	saveDir         string

	learnSteps  int
	targetSyncs int
	losses      map[string]float64

	// Scratch space for critic targets
	nextLogProbs []float64
	nextMinQ     []float64
	y            []float64
	oneHot       []float64
}

// New creates and returns a new SAC agent for an environment with
// observations of dimension obsDim and numActions discrete actions
func New(obsDim, numActions int, c Config, seed uint64) (*SAC, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if obsDim < 1 {
		return nil, agent.NewConfigurationError("obsDim", "observations "+
			"must have positive dimension, have(%v)", obsDim)
	}
	if numActions < 2 {
		return nil, agent.NewConfigurationError("numActions", "need at "+
			"least 2 actions, have(%v)", numActions)
	}

	s := &SAC{
		learnAlpha:      c.LearnAlpha,
		alpha:           c.InitAlpha,
		targetEntropy:   c.AlphaScale * math.Log(float64(numActions)),
		discount:        c.Discount,
		tau:             c.Tau,
		targetUpdate:    c.TargetUpdate,
		updateFrequency: c.UpdateFrequency,
		batchSize:       c.BatchSize,
		numActions:      numActions,
		features:        obsDim,
		saveDir:         c.SaveDir,
		losses:          make(map[string]float64),
		nextLogProbs:    make([]float64, c.BatchSize*numActions),
		nextMinQ:        make([]float64, c.BatchSize*numActions),
		y:               make([]float64, c.BatchSize),
		oneHot:          make([]float64, c.BatchSize*numActions),
	}
	s.losses[Alpha] = s.alpha

	biases := make([]bool, len(c.Hidden))
	for i := range biases {
		biases[i] = true
	}

	if err := s.buildPolicy(c, biases, seed); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if err := s.buildCritics(c, biases); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if s.learnAlpha {
		if err := s.buildAlpha(c); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}

	return s, nil
}

// buildPolicy constructs the policy being trained and its clones. The
// policy loss is:
//
//	mean_b Σ_a π(a|s) (α log π(a|s) - min_j Q_j(s, a))
func (s *SAC) buildPolicy(c Config, biases []bool, seed uint64) error {
	g := G.NewGraph()
	net, err := network.NewMultiHeadMLP(s.features, s.batchSize,
		s.numActions, g, c.Hidden, biases, c.InitWFn.InitWFn(),
		c.Activations)
	if err != nil {
		return fmt.Errorf("buildpolicy: could not create policy: %v", err)
	}
	s.policyNet = net

	// Clones for selecting actions and for computing critic targets
	behaviourNet, err := net.CloneWithBatch(1)
	if err != nil {
		return fmt.Errorf("buildpolicy: could not clone policy: %v", err)
	}
	if s.behaviour, err = policy.NewCategoricalMLP(behaviourNet, seed); err != nil {
		return fmt.Errorf("buildpolicy: %v", err)
	}
	if s.nextPolicy, err = net.CloneWithBatch(s.batchSize); err != nil {
		return fmt.Errorf("buildpolicy: could not clone policy: %v", err)
	}
	s.nextPolicyVM = G.NewTapeMachine(s.nextPolicy.Graph())

	s.minQ = G.NewMatrix(g, tensor.Float64,
		G.WithShape(s.batchSize, s.numActions), G.WithName("minQ"),
		G.WithInit(G.Zeroes()))
	s.alphaInput = G.NewScalar(g, tensor.Float64, G.WithName("alpha"),
		G.WithValue(s.alpha))

	logProbs, err := op.LogSoftmax(net.Prediction())
	if err != nil {
		return fmt.Errorf("buildpolicy: %v", err)
	}
	G.Read(logProbs, &s.logProbs)
	probs := G.Must(G.Exp(logProbs))

	inner := G.Must(G.HadamardProd(s.alphaInput, logProbs))
	inner = G.Must(G.Sub(inner, s.minQ))
	perState := G.Must(G.Sum(G.Must(G.HadamardProd(probs, inner)), 1))
	loss := G.Must(G.Mean(perState))
	G.Read(loss, &s.policyLoss)

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		return fmt.Errorf("buildpolicy: could not compute gradient: %v", err)
	}
	s.policyVM = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))
	s.policySolver = c.PolicySolver.New()

	return nil
}

// buildCritics constructs both critics in a single graph sharing one
// input node, as well as the target critics. The critic loss is the
// sum of the mean squared errors of both critics.
func (s *SAC) buildCritics(c Config, biases []bool) error {
	g := G.NewGraph()
	states := G.NewMatrix(g, tensor.Float64,
		G.WithShape(s.batchSize, s.features), G.WithName("input"),
		G.WithInit(G.Zeroes()))
	s.actions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(s.batchSize, s.numActions), G.WithName("actions"),
		G.WithInit(G.Zeroes()))
	s.criticTargets = G.NewVector(g, tensor.Float64,
		G.WithShape(s.batchSize), G.WithName("targets"),
		G.WithInit(G.Zeroes()))

	var learnables G.Nodes
	var loss *G.Node
	for i := range s.critics {
		critic, err := network.NewMultiHeadMLPFromInput(states, s.numActions,
			c.Hidden, biases, c.InitWFn.InitWFn(), c.Activations,
			fmt.Sprintf("critic%v_", i))
		if err != nil {
			return fmt.Errorf("buildcritics: could not create critic: %v", err)
		}
		s.critics[i] = critic
		learnables = append(learnables, critic.Learnables()...)
		s.criticModel = append(s.criticModel, critic.Model()...)

		// Action values of the selected actions
		q := G.Must(G.HadamardProd(critic.Prediction(), s.actions))
		q = G.Must(G.Sum(q, 1))

		mse := G.Must(G.Sub(q, s.criticTargets))
		mse = G.Must(G.Mean(G.Must(G.Square(mse))))
		if loss == nil {
			loss = mse
		} else {
			loss = G.Must(G.Add(loss, mse))
		}

		target, err := critic.CloneWithBatch(s.batchSize)
		if err != nil {
			return fmt.Errorf("buildcritics: could not create target: %v", err)
		}
		s.targets[i] = target
		s.targetVMs[i] = G.NewTapeMachine(target.Graph())
	}
	G.Read(loss, &s.criticLoss)

	minQ, err := op.Min(s.critics[0].Prediction(), s.critics[1].Prediction())
	if err != nil {
		return fmt.Errorf("buildcritics: %v", err)
	}
	G.Read(minQ, &s.minQVal)

	if _, err := G.Grad(loss, learnables...); err != nil {
		return fmt.Errorf("buildcritics: could not compute gradient: %v", err)
	}
	s.criticVM = G.NewTapeMachine(g, G.BindDualValues(learnables...))
	s.criticSolver = c.CriticSolver.New()

	return nil
}

// buildAlpha constructs the graph for learning the log of the entropy
// temperature. Given e = mean_b Σ_a π(a|s) (log π(a|s) + H̄), the loss
// is -exp(log α) * e.
func (s *SAC) buildAlpha(c Config) error {
	g := G.NewGraph()
	s.logAlpha = G.NewVector(g, tensor.Float64, G.WithShape(1),
		G.WithName("logAlpha"), G.WithValue(tensor.New(
			tensor.WithShape(1),
			tensor.WithBacking([]float64{math.Log(c.InitAlpha)}),
		)))
	s.entropyError = G.NewVector(g, tensor.Float64, G.WithShape(1),
		G.WithName("entropyError"), G.WithInit(G.Zeroes()))

	alpha := G.Must(G.Exp(s.logAlpha))
	loss := G.Must(G.HadamardProd(alpha, s.entropyError))
	loss = G.Must(G.Neg(G.Must(G.Sum(loss))))
	G.Read(loss, &s.alphaLoss)

	if _, err := G.Grad(loss, s.logAlpha); err != nil {
		return fmt.Errorf("buildalpha: could not compute gradient: %v", err)
	}
	s.alphaVM = G.NewTapeMachine(g, G.BindDualValues(s.logAlpha))
	s.alphaSolver = c.AlphaSolver.New()

	return nil
}

// Update performs a single learning step on a batch of transitions.
// Learning only happens on environment steps divisible by the update
// frequency, on other steps Update does nothing.
func (s *SAC) Update(batch expreplay.Batch, step int) error {
	if step%s.updateFrequency != 0 {
		return nil
	}
	if batch.Size() != s.batchSize || batch.Features() != s.features {
		return fmt.Errorf("update: batch must have size %v and %v features, "+
			"have(%v, %v)", s.batchSize, s.features, batch.Size(),
			batch.Features())
	}

	if err := s.computeTargets(batch); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	minQ, err := s.stepCritics(batch)
	if err != nil {
		return err
	}
	logProbs, err := s.stepPolicy(batch, minQ)
	if err != nil {
		return err
	}
	if s.learnAlpha {
		if err := s.stepAlpha(logProbs); err != nil {
			return err
		}
	}

	// Action selection and critic targets use the new policy
	if err := s.behaviour.Set(s.policyNet); err != nil {
		return fmt.Errorf("update: could not sync behaviour policy: %v", err)
	}
	if err := s.nextPolicy.Set(s.policyNet); err != nil {
		return fmt.Errorf("update: could not sync next state policy: %v", err)
	}

	s.learnSteps++
	if s.learnSteps%s.targetUpdate == 0 {
		if err := s.syncTargets(); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	}

	return s.checkParameters()
}

// computeTargets computes the regression targets of the critics:
//
//	y = r + γ (1 - terminal) Σ_a π(a|s') (min_j Q̄_j(s', a) - α log π(a|s'))
func (s *SAC) computeTargets(batch expreplay.Batch) error {
	// Next state action distribution
	if err := s.nextPolicy.SetInput(batch.NextStates); err != nil {
		return fmt.Errorf("computetargets: %v", err)
	}
	if err := s.nextPolicyVM.RunAll(); err != nil {
		return fmt.Errorf("computetargets: could not run policy: %v", err)
	}
	copy(s.nextLogProbs, s.nextPolicy.Output().Data().([]float64))
	s.nextPolicyVM.Reset()

	// Pessimistic next state action values
	for i := range s.targets {
		if err := s.targets[i].SetInput(batch.NextStates); err != nil {
			return fmt.Errorf("computetargets: %v", err)
		}
		if err := s.targetVMs[i].RunAll(); err != nil {
			return fmt.Errorf("computetargets: could not run target: %v", err)
		}
		q := s.targets[i].Output().Data().([]float64)
		if i == 0 {
			copy(s.nextMinQ, q)
		} else {
			floatutils.MinPairwise(s.nextMinQ, s.nextMinQ, q)
		}
		s.targetVMs[i].Reset()
	}

	A := s.numActions
	for b := 0; b < s.batchSize; b++ {
		logProbs := s.nextLogProbs[b*A : (b+1)*A]
		floatutils.LogSoftmax(logProbs, logProbs)

		value := 0.0
		for a, logProb := range logProbs {
			value += math.Exp(logProb) * (s.nextMinQ[b*A+a] - s.alpha*logProb)
		}
		s.y[b] = batch.Rewards[b] + s.discount*(1-batch.Terminals[b])*value
	}

	if i, ok := floatutils.AllFinite(s.y); !ok {
		return &agent.NumericalDivergenceError{Op: "computetargets",
			Quantity: "critic target", Value: s.y[i]}
	}
	return nil
}

// stepCritics takes one gradient step on both critics and returns the
// minimum action values of both critics in the batch states, predicted
// before the step was taken
func (s *SAC) stepCritics(batch expreplay.Batch) ([]float64, error) {
	for i := range s.oneHot {
		s.oneHot[i] = 0
	}
	for b, a := range batch.Actions {
		if a < 0 || a >= s.numActions {
			return nil, fmt.Errorf("stepcritics: action %v outside [0, %v)",
				a, s.numActions)
		}
		s.oneHot[b*s.numActions+a] = 1.0
	}

	if err := s.critics[0].SetInput(batch.States); err != nil {
		return nil, fmt.Errorf("stepcritics: %v", err)
	}
	if err := G.Let(s.actions, tensor.New(
		tensor.WithShape(s.batchSize, s.numActions),
		tensor.WithBacking(s.oneHot),
	)); err != nil {
		return nil, fmt.Errorf("stepcritics: could not set actions: %v", err)
	}
	if err := G.Let(s.criticTargets, tensor.New(
		tensor.WithShape(s.batchSize),
		tensor.WithBacking(s.y),
	)); err != nil {
		return nil, fmt.Errorf("stepcritics: could not set targets: %v", err)
	}

	defer s.criticVM.Reset()
	if err := s.criticVM.RunAll(); err != nil {
		return nil, fmt.Errorf("stepcritics: could not run critics: %v", err)
	}

	loss := s.criticLoss.Data().(float64)
	s.losses[CriticLoss] = loss
	if !floatutils.IsFinite(loss) {
		return nil, &agent.NumericalDivergenceError{Op: "stepcritics",
			Quantity: "critic loss", Value: loss}
	}
	minQ := append([]float64(nil), s.minQVal.Data().([]float64)...)

	if err := s.criticSolver.Step(s.criticModel); err != nil {
		return nil, fmt.Errorf("stepcritics: could not step solver: %v", err)
	}
	return minQ, nil
}

// stepPolicy takes one gradient step on the policy and returns the log
// probabilities of each action in the batch states, predicted before
// the step was taken
func (s *SAC) stepPolicy(batch expreplay.Batch,
	minQ []float64) ([]float64, error) {
	if err := s.policyNet.SetInput(batch.States); err != nil {
		return nil, fmt.Errorf("steppolicy: %v", err)
	}
	if err := G.Let(s.minQ, tensor.New(
		tensor.WithShape(s.batchSize, s.numActions),
		tensor.WithBacking(minQ),
	)); err != nil {
		return nil, fmt.Errorf("steppolicy: could not set action values: %v",
			err)
	}
	if err := G.Let(s.alphaInput, G.NewF64(s.alpha)); err != nil {
		return nil, fmt.Errorf("steppolicy: could not set α: %v", err)
	}

	defer s.policyVM.Reset()
	if err := s.policyVM.RunAll(); err != nil {
		return nil, fmt.Errorf("steppolicy: could not run policy: %v", err)
	}

	loss := s.policyLoss.Data().(float64)
	s.losses[PolicyLoss] = loss
	if !floatutils.IsFinite(loss) {
		return nil, &agent.NumericalDivergenceError{Op: "steppolicy",
			Quantity: "policy loss", Value: loss}
	}
	logProbs := append([]float64(nil), s.logProbs.Data().([]float64)...)

	if err := s.policySolver.Step(s.policyNet.Model()); err != nil {
		return nil, fmt.Errorf("steppolicy: could not step solver: %v", err)
	}
	return logProbs, nil
}

// stepAlpha takes one gradient step on the log entropy temperature
func (s *SAC) stepAlpha(logProbs []float64) error {
	// mean_b Σ_a π(a|s) (log π(a|s) + H̄)
	entropyError := 0.0
	for _, logProb := range logProbs {
		entropyError += math.Exp(logProb) * (logProb + s.targetEntropy)
	}
	entropyError /= float64(s.batchSize)

	if err := G.Let(s.entropyError, tensor.New(
		tensor.WithShape(1),
		tensor.WithBacking([]float64{entropyError}),
	)); err != nil {
		return fmt.Errorf("stepalpha: could not set entropy error: %v", err)
	}

	defer s.alphaVM.Reset()
	if err := s.alphaVM.RunAll(); err != nil {
		return fmt.Errorf("stepalpha: could not run temperature: %v", err)
	}

	loss := s.alphaLoss.Data().(float64)
	s.losses[AlphaLoss] = loss
	if !floatutils.IsFinite(loss) {
		return &agent.NumericalDivergenceError{Op: "stepalpha",
			Quantity: "alpha loss", Value: loss}
	}

	model := G.NodesToValueGrads(G.Nodes{s.logAlpha})
	if err := s.alphaSolver.Step(model); err != nil {
		return fmt.Errorf("stepalpha: could not step solver: %v", err)
	}

	logAlpha, err := network.Backing(s.logAlpha)
	if err != nil {
		return fmt.Errorf("stepalpha: %v", err)
	}
	s.alpha = math.Exp(logAlpha[0])
	s.losses[Alpha] = s.alpha
	if !floatutils.IsFinite(s.alpha) || s.alpha <= 0 {
		return &agent.NumericalDivergenceError{Op: "stepalpha",
			Quantity: "alpha", Value: s.alpha}
	}
	return nil
}

// syncTargets moves the weights of each target critic towards the
// weights of its online critic:
//
//	θ̄ ← τθ + (1 - τ)θ̄
func (s *SAC) syncTargets() error {
	for i := range s.targets {
		if err := s.targets[i].Polyak(s.critics[i], s.tau); err != nil {
			return fmt.Errorf("synctargets: %v", err)
		}
	}
	s.targetSyncs++
	return nil
}

// checkParameters returns a *agent.NumericalDivergenceError if any
// learned parameter is not finite
func (s *SAC) checkParameters() error {
	nets := []network.NeuralNet{s.policyNet, s.critics[0], s.critics[1],
		s.targets[0], s.targets[1]}

	for _, net := range nets {
		for _, node := range net.Learnables() {
			weights, err := network.Backing(node)
			if err != nil {
				return fmt.Errorf("checkparameters: %v", err)
			}
			if i, ok := floatutils.AllFinite(weights); !ok {
				return &agent.NumericalDivergenceError{Op: "update",
					Quantity: node.Name(), Value: weights[i]}
			}
		}
	}
	return nil
}

// SelectAction samples an action from the policy. In evaluation mode,
// the most probable action is selected.
func (s *SAC) SelectAction(state []float64) (int, error) {
	return s.behaviour.SelectAction(state)
}

// Probabilities returns the policy's distribution over actions
func (s *SAC) Probabilities(state []float64) ([]float64, error) {
	return s.behaviour.Probabilities(state)
}

// NumActions returns the number of actions the agent selects between
func (s *SAC) NumActions() int {
	return s.numActions
}

// Eval sets the agent into evaluation mode
func (s *SAC) Eval() {
	s.behaviour.Eval()
}

// Train sets the agent into training mode
func (s *SAC) Train() {
	s.behaviour.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (s *SAC) IsEval() bool {
	return s.behaviour.IsEval()
}

// Alpha returns the current entropy temperature
func (s *SAC) Alpha() float64 {
	return s.alpha
}

// TargetSyncs returns the number of times the target critics have been
// updated
func (s *SAC) TargetSyncs() int {
	return s.targetSyncs
}

// LearnSteps returns the number of learning steps taken
func (s *SAC) LearnSteps() int {
	return s.learnSteps
}

// Losses returns the losses of the most recent learning step and the
// current value of α
func (s *SAC) Losses() map[string]float64 {
	losses := make(map[string]float64, len(s.losses))
	for k, v := range s.losses {
		losses[k] = v
	}
	return losses
}

// Policy returns the network of the policy being learned
func (s *SAC) Policy() network.NeuralNet {
	return s.policyNet
}

// Critics returns the online critics
func (s *SAC) Critics() [2]network.NeuralNet {
	return s.critics
}

// Targets returns the target critics
func (s *SAC) Targets() [2]network.NeuralNet {
	return s.targets
}

// SavePolicy saves the weights of the policy to <SaveDir>/<tag>.policy
// and returns the path of the saved file. Only the policy is saved.
func (s *SAC) SavePolicy(tag string) (string, error) {
	if err := os.MkdirAll(s.saveDir, 0o755); err != nil {
		return "", fmt.Errorf("savepolicy: could not create directory: %v",
			err)
	}

	path := filepath.Join(s.saveDir, tag+".policy")
	if err := policy.Save(path, s.policyNet); err != nil {
		return "", fmt.Errorf("savepolicy: %v", err)
	}
	return path, nil
}

// Close closes all the VMs of the agent
func (s *SAC) Close() error {
	vms := []G.VM{s.policyVM, s.nextPolicyVM, s.criticVM, s.targetVMs[0],
		s.targetVMs[1]}
	if s.alphaVM != nil {
		vms = append(vms, s.alphaVM)
	}

	var err error
	for _, vm := range vms {
		if closeErr := vm.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if closeErr := s.behaviour.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
