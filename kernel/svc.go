package kernel

import (
	"runtime"
	"sync/atomic"
)

// Args are the argument registers of a system call. r0 and r1 carry the
// results back.
type Args [4]int32

// Svc numbers a system call.
type Svc uint8

const (
	SvcYield Svc = iota
	SvcClock
	SvcSleep
	SvcAlarm
	SvcMutexLock
	SvcMutexTryLock
	SvcMutexTimedLock
	SvcMutexUnlock
	SvcSemInit
	SvcSemWait
	SvcSemTryWait
	SvcSemTimedWait
	SvcSemPost
	SvcCondWait
	SvcCondTimedWait
	SvcCondSignal
	SvcCondBroadcast
	SvcFlagTake
	SvcFlagTimedTake
	SvcFlagGive
	SvcFlagVal
	SvcFlagClr
	SvcFlagSet
	SvcFlagWatch
	SvcFlagTimedWatch
	SvcGateWait
	SvcGateTimedWait
	SvcGateExit
	SvcGateOpen
	SvcGateClose
	SvcEventWait
	SvcEventTimedWait
	SvcEventRaise
	SvcEventMask
	SvcEventClear
	SvcIRQWait
	SvcIRQTimedWait
	SvcIRQCtl
	SvcObjAlloc
	SvcObjFree
	SvcJoin
	SvcCancel
	SvcExit
	SvcTerminate
	SvcPause
	SvcResume
	SvcErrno
	SvcCriticalEnter
	SvcCriticalExit
	svcCount
)

type svcFunc func(k *Kernel, arg *Args, self int)

var svcTable [svcCount]svcFunc

func init() {
	svcTable = [svcCount]svcFunc{
		SvcYield:          yieldSvc,
		SvcClock:          clockSvc,
		SvcSleep:          sleepSvc,
		SvcAlarm:          alarmSvc,
		SvcMutexLock:      mutexLockSvc,
		SvcMutexTryLock:   mutexTryLockSvc,
		SvcMutexTimedLock: mutexTimedLockSvc,
		SvcMutexUnlock:    mutexUnlockSvc,
		SvcSemInit:        semInitSvc,
		SvcSemWait:        semWaitSvc,
		SvcSemTryWait:     semTryWaitSvc,
		SvcSemTimedWait:   semTimedWaitSvc,
		SvcSemPost:        semPostSvc,
		SvcCondWait:       condWaitSvc,
		SvcCondTimedWait:  condTimedWaitSvc,
		SvcCondSignal:     condSignalSvc,
		SvcCondBroadcast:  condBroadcastSvc,
		SvcFlagTake:       flagTakeSvc,
		SvcFlagTimedTake:  flagTimedTakeSvc,
		SvcFlagGive:       flagGiveSvc,
		SvcFlagVal:        flagValSvc,
		SvcFlagClr:        flagClrSvc,
		SvcFlagSet:        flagSetSvc,
		SvcFlagWatch:      flagWatchSvc,
		SvcFlagTimedWatch: flagTimedWatchSvc,
		SvcGateWait:       gateWaitSvc,
		SvcGateTimedWait:  gateTimedWaitSvc,
		SvcGateExit:       gateExitSvc,
		SvcGateOpen:       gateOpenSvc,
		SvcGateClose:      gateCloseSvc,
		SvcEventWait:      eventWaitSvc,
		SvcEventTimedWait: eventTimedWaitSvc,
		SvcEventRaise:     eventRaiseSvc,
		SvcEventMask:      eventMaskSvc,
		SvcEventClear:     eventClearSvc,
		SvcIRQWait:        irqWaitSvc,
		SvcIRQTimedWait:   irqTimedWaitSvc,
		SvcIRQCtl:         irqCtlSvc,
		SvcObjAlloc:       objAllocSvc,
		SvcObjFree:        objFreeSvc,
		SvcJoin:           joinSvc,
		SvcCancel:         cancelSvc,
		SvcExit:           exitSvc,
		SvcTerminate:      terminateSvc,
		SvcPause:          pauseSvc,
		SvcResume:         resumeSvc,
		SvcErrno:          errnoSvc,
		SvcCriticalEnter:  criticalEnterSvc,
		SvcCriticalExit:   criticalExitSvc,
	}
}

func badSvc(k *Kernel, arg *Args, self int) {
	k.fail(arg, self, ErrSyscallInvalid, ENOSYS)
}

// trap runs fn as a system call of self. The calling goroutine must be the
// one of the active thread self.
//
// Rescheduling happens here: on entry when a pass is pending and on exit
// when fn asked for one. A goroutine cannot be interrupted, so a thread
// that never enters the kernel is never preempted.
func (k *Kernel) trap(self int, fn svcFunc, a0, a1, a2, a3 int32) (int32, int32) {
	tc := k.ctx(self)
	if tc == nil {
		runtime.Goexit()
	}
	f := tc.frame

	k.enter(self, f)
	if !tc.cancel.Load() {
		tc.arg = Args{a0, a1, a2, a3}
		fn(k, &tc.arg, self)
	}
	k.leave(self, f)

	if tc.cancel.Swap(false) {
		(&Context{k: k, th: self}).Exit(int(tc.code))
	}
	return atomic.LoadInt32(&tc.arg[0]), atomic.LoadInt32(&tc.arg[1])
}

func (k *Kernel) call(self int, no Svc, a ...int32) (int32, int32) {
	var r Args
	copy(r[:], a)
	fn := badSvc
	if no < svcCount && svcTable[no] != nil {
		fn = svcTable[no]
	}
	return k.trap(self, fn, r[0], r[1], r[2], r[3])
}

// Syscall issues system call no on behalf of thread self with raw
// arguments. r0 and r1 are returned in arg. Unknown calls fail with ENOSYS.
func (k *Kernel) Syscall(self int, no Svc, arg *Args) {
	arg[0], arg[1] = k.call(self, no, arg[:]...)
}

func errnoSvc(k *Kernel, arg *Args, self int) {
	arg[0] = int32(k.th[self].errno.Load())
}
