package proc

import (
	"testing"

	"hammeros/kernel/sched"
)

func resetProcTable() {
	table = map[uint32]*PCB{}
	nextPID = 1
}

func TestExitPostsWaitSemAndRecordsExitCode(t *testing.T) {
	resetProcTable()
	parent := newPCB(0)
	child := newPCB(parent.PID)

	restoreCurrent := currentThreadFn
	restoreExit := schedExitFn
	var exitedWith int32 = -1
	currentThreadFn = func() *sched.TCB { return &sched.TCB{PID: child.PID} }
	schedExitFn = func(code int32) { exitedWith = code }
	defer func() { currentThreadFn = restoreCurrent; schedExitFn = restoreExit }()

	Exit(7)

	if !child.HasExit || child.ExitCode != 7 {
		t.Fatalf("child PCB not updated: HasExit=%v ExitCode=%d", child.HasExit, child.ExitCode)
	}
	if exitedWith != 7 {
		t.Fatalf("schedExitFn called with %d, want 7", exitedWith)
	}
}

func TestWaitpidSpecificChildReapsAfterExit(t *testing.T) {
	resetProcTable()
	parent := newPCB(0)
	child := newPCB(parent.PID)
	child.HasExit = true
	child.ExitCode = 3
	child.WaitSem.Post()

	pid, code, err := Waitpid(parent.PID, int32(child.PID))
	if err != nil {
		t.Fatalf("Waitpid: %v", err)
	}
	if pid != child.PID || code != 3 {
		t.Fatalf("Waitpid returned pid=%d code=%d, want pid=%d code=3", pid, code, child.PID)
	}
	if Lookup(child.PID) != nil {
		t.Fatalf("child PCB still present after being reaped")
	}
	if len(parent.ChildPIDs) != 0 {
		t.Fatalf("parent still lists reaped child: %v", parent.ChildPIDs)
	}
}

func TestWaitpidUnknownChildIsRejected(t *testing.T) {
	resetProcTable()
	parent := newPCB(0)

	if _, _, err := Waitpid(parent.PID, 999); err != errNoChild {
		t.Fatalf("Waitpid(unrelated pid): got %v, want errNoChild", err)
	}
}

func TestWaitpidAnyChildPicksFirstExited(t *testing.T) {
	resetProcTable()
	parent := newPCB(0)
	c1 := newPCB(parent.PID)
	c2 := newPCB(parent.PID)
	c2.HasExit = true
	c2.ExitCode = 42
	c2.WaitSem.Post()

	pid, code, err := Waitpid(parent.PID, 0)
	if err != nil {
		t.Fatalf("Waitpid(any): %v", err)
	}
	if pid != c2.PID || code != 42 {
		t.Fatalf("Waitpid(any) = pid=%d code=%d, want pid=%d code=42", pid, code, c2.PID)
	}
	if Lookup(c1.PID) == nil {
		t.Fatalf("unrelated child c1 was reaped too")
	}
}
