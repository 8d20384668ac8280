package solver

import (
	"github.com/edp1096/mnaspice/pkg/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Plan", func() {
	var cfg config.SolverConfig

	BeforeEach(func() {
		cfg = config.Default()
	})

	It("starts with the standard solve when enabled", func() {
		Expect(NewPlan(cfg, cfg.Gmin).Start()).To(Equal(State{Phase: Standard}))
	})

	It("skips disabled phases at the start", func() {
		cfg.UseStandard = false
		Expect(NewPlan(cfg, cfg.Gmin).Start()).To(Equal(State{Phase: GminStepping}))

		cfg.UseGminStepping = false
		Expect(NewPlan(cfg, cfg.Gmin).Start()).To(Equal(State{Phase: SourceStepping}))
	})

	Describe("gmin schedule", func() {
		It("strictly decreases to the requested gmin", func() {
			schedule := NewPlan(cfg, cfg.Gmin).GminSchedule
			Expect(schedule).To(HaveLen(cfg.GminSteps + 1))
			for i := 1; i < len(schedule); i++ {
				Expect(schedule[i]).To(BeNumerically("<", schedule[i-1]))
			}
			Expect(schedule[len(schedule)-1]).To(BeNumerically("~", cfg.Gmin, 1e-24))
		})

		It("appends a requested gmin below the configured one", func() {
			schedule := NewPlan(cfg, 0).GminSchedule
			Expect(schedule).To(HaveLen(cfg.GminSteps + 2))
			Expect(schedule[len(schedule)-2]).To(Equal(cfg.Gmin))
			Expect(schedule[len(schedule)-1]).To(BeZero())
		})

		It("starts from the larger of requested and configured gmin", func() {
			schedule := GminSchedule(1e-9, 1e-9, 2)
			Expect(schedule).To(HaveLen(3))
			Expect(schedule[0]).To(BeNumerically("~", 1e-7, 1e-20))
		})
	})

	It("ramps source factors up to one", func() {
		factors := SourceFactors(4)
		Expect(factors).To(Equal([]float64{0.25, 0.5, 0.75, 1}))
	})
})

var _ = Describe("Next", func() {
	var plan Plan

	BeforeEach(func() {
		plan = NewPlan(config.Default(), config.DefaultGmin)
	})

	It("finishes when the standard solve converges", func() {
		Expect(Next(plan, State{Phase: Standard}, true)).To(Equal(State{Phase: Succeeded}))
	})

	It("moves to gmin stepping when the standard solve fails", func() {
		Expect(Next(plan, State{Phase: Standard}, false)).To(Equal(State{Phase: GminStepping}))
	})

	It("advances a converged stepping stage", func() {
		Expect(Next(plan, State{Phase: GminStepping, Stage: 3}, true)).
			To(Equal(State{Phase: GminStepping, Stage: 4}))
	})

	It("succeeds after the last gmin stage", func() {
		last := len(plan.GminSchedule) - 1
		Expect(Next(plan, State{Phase: GminStepping, Stage: last}, true)).To(Equal(State{Phase: Succeeded}))
	})

	It("abandons a phase on failure, whatever the stage", func() {
		Expect(Next(plan, State{Phase: GminStepping, Stage: 7}, false)).To(Equal(State{Phase: SourceStepping}))
		Expect(Next(plan, State{Phase: SourceStepping, Stage: 2}, false)).To(Equal(State{Phase: Exhausted}))
	})

	It("skips disabled phases after a failure", func() {
		plan.Gmin = false
		Expect(Next(plan, State{Phase: Standard}, false)).To(Equal(State{Phase: SourceStepping}))
		plan.Source = false
		Expect(Next(plan, State{Phase: Standard}, false)).To(Equal(State{Phase: Exhausted}))
	})

	It("keeps terminal states", func() {
		Expect(Next(plan, State{Phase: Succeeded}, false)).To(Equal(State{Phase: Succeeded}))
		Expect(Next(plan, State{Phase: Exhausted}, true)).To(Equal(State{Phase: Exhausted}))
	})

	It("applies the stage aid", func() {
		Expect(plan.Aid(State{Phase: Standard}).Gmin).To(Equal(config.DefaultGmin))
		Expect(plan.Aid(State{Phase: GminStepping, Stage: 0}).Gmin).To(Equal(plan.GminSchedule[0]))
		aid := plan.Aid(State{Phase: SourceStepping, Stage: 0})
		Expect(aid.SourceScale).To(Equal(plan.SourceFactors[0]))
		Expect(aid.Gmin).To(Equal(config.DefaultGmin))
	})
})

var _ = Describe("Controller", func() {
	It("solves a diode circuit in the standard phase", func() {
		cfg := config.Default()
		c, _ := diodeCircuit(GinkgoT())
		ctl := NewController(cfg, newton(GinkgoT(), cfg), nil)

		out := ctl.Solve(problemOf(GinkgoT(), c), nil, cfg.Gmin)
		Expect(out.Found()).To(BeTrue())
		Expect(out.Phase).To(Equal(Standard))
		Expect(out.Stages).To(Equal(1))
	})

	It("walks every gmin stage when only gmin stepping is enabled", func() {
		cfg := config.Default()
		cfg.UseStandard = false
		cfg.UseSourceStepping = false
		c, _ := diodeCircuit(GinkgoT())
		ctl := NewController(cfg, newton(GinkgoT(), cfg), nil)

		out := ctl.Solve(problemOf(GinkgoT(), c), nil, cfg.Gmin)
		Expect(out.Found()).To(BeTrue())
		Expect(out.Phase).To(Equal(GminStepping))
		Expect(out.Stages).To(Equal(cfg.GminSteps + 1))
	})

	It("reaches the full source value by source stepping", func() {
		cfg := config.Default()
		cfg.UseStandard = false
		cfg.UseGminStepping = false
		c, _ := diodeCircuit(GinkgoT())
		ctl := NewController(cfg, newton(GinkgoT(), cfg), nil)

		out := ctl.Solve(problemOf(GinkgoT(), c), nil, cfg.Gmin)
		Expect(out.Found()).To(BeTrue())
		Expect(out.Phase).To(Equal(SourceStepping))
		Expect(out.X.AtVec(0)).To(BeNumerically("~", 5, 1e-9))
	})

	It("returns no solution when every phase fails", func() {
		cfg := config.Default()
		cfg.MaxIter = 1
		c, _ := diodeCircuit(GinkgoT())
		ctl := NewController(cfg, newton(GinkgoT(), cfg), nil)

		out := ctl.Solve(problemOf(GinkgoT(), c), nil, cfg.Gmin)
		Expect(out.Found()).To(BeFalse())
		Expect(out.X).To(BeNil())
		Expect(out.Stages).To(Equal(1 + 1 + 1))
	})
})
