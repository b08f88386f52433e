package sched

// switchStacks performs the low-level half of a context switch: it saves
// the callee-saved registers (EBP, EBX, ESI, EDI) of the currently running
// thread onto its own kernel stack, records the resulting stack pointer at
// *fromSP, switches onto the stack pointed to by toSP, and restores the
// callee-saved registers found there.
//
// fromTCB/toTCB are carried through in EAX/EDX untouched by the switch; a
// freshly created thread's seeded stack resumes at threadTrampoline, which
// reads them straight out of those registers instead of off the stack
// (mirroring the original kernel's run_thread(switched_from, switched_to),
// which relies on the same two registers surviving the switch). Implemented
// in context_switch_386.s, following the scalar-argument calling
// convention cpu_386.s already uses for its bodyless stubs.
func switchStacks(fromTCB, toTCB uintptr, fromSP *uintptr, toSP uintptr)

// threadTrampoline is never called directly from Go. It is the resume
// address seeded onto a brand new thread's kernel stack (see
// prepareNewThread); the first switchStacks that dispatches such a thread
// returns into it instead of into contextSwitch's caller.
func threadTrampoline()
