package sync

// The sleep-based primitives in this package (SleepMutex, RWLock,
// Semaphore) need to block and wake threads, but kernel/sched itself
// imports this package to register the hooks below. Wiring the dependency directly would create
// an import cycle, so kernel/sched registers these hooks once during its
// Init instead - the same indirection idiom used throughout vmm/pmm for
// test mocking (package-level `var fooFn = ...`).
var (
	currentTIDFn        func() uint32
	holdPreemptionFn    func()
	releasePreemptionFn func()
	blockCurrentFn      func()
	wakeFn              func(tid uint32)
)

// SetSchedulerHooks wires the scheduler's thread-accounting functions into
// the sleep-based synchronization primitives. holdPreemption/
// releasePreemption must bracket the gap between a contended primitive
// giving up its TicketMutex guard and actually parking: guard is a spin
// lock that does not mask interrupts, so without holding preemption across
// that gap a timer tick can cooperatively Yield the about-to-block thread
// (status stays Ready) while it already sits in a waiters slice, and a
// racing Unlock/Post then hands it ownership with nobody left to wake it.
// Called exactly once, by kernel/sched's Init.
func SetSchedulerHooks(currentTID func() uint32, holdPreemption, releasePreemption func(), blockCurrent func(), wake func(uint32)) {
	currentTIDFn = currentTID
	holdPreemptionFn = holdPreemption
	releasePreemptionFn = releasePreemption
	blockCurrentFn = blockCurrent
	wakeFn = wake
}

// SetYieldFunc registers the cooperative-yield hook TicketMutex spins
// against. Also wired by kernel/sched's Init.
func SetYieldFunc(yield func()) {
	yieldFn = yield
}
