package engine

// System is one step of the per-frame update.
type System interface {
	Update(rt *Runtime)
}

// Scheduler runs systems in the order they were added.
type Scheduler struct {
	systems []System
}

func NewScheduler(systems ...System) *Scheduler {
	copied := append([]System(nil), systems...)
	return &Scheduler{systems: copied}
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

func (s *Scheduler) Update(rt *Runtime) {
	for _, system := range s.systems {
		system.Update(rt)
	}
}
