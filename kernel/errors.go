package kernel

import (
	"errors"
	"strconv"
)

// ErrBadConfig is returned by New for an unusable configuration.
var ErrBadConfig = errors.New("kernel: bad config")

// Errno is the value a system call leaves in r0 when it fails.
// Successful calls return OK or a non-negative result.
type Errno int32

const (
	OK        Errno = 0
	ETIMEDOUT Errno = -1
	EINVAL    Errno = -3
	EAGAIN    Errno = -4
	EDEADLK   Errno = -5
	EPERM     Errno = -6
	ENOSYS    Errno = -7
	EFAULT    Errno = -8
	ENOMEM    Errno = -9
)

func (e Errno) String() string {
	switch e {
	case OK:
		return "ok"
	case ETIMEDOUT:
		return "timed out"
	case EINVAL:
		return "invalid argument"
	case EAGAIN:
		return "try again"
	case EDEADLK:
		return "deadlock"
	case EPERM:
		return "not permitted"
	case ENOSYS:
		return "not implemented"
	case EFAULT:
		return "bad address"
	case ENOMEM:
		return "out of objects"
	default:
		return "errno " + strconv.Itoa(int(e))
	}
}

func (e Errno) Error() string { return e.String() }

// result converts a raw r0 value into an error.
func result(r int32) error {
	if r >= 0 {
		return nil
	}
	return Errno(r)
}

// ErrCode is the usage error latched in a thread when a system call is
// rejected. It is kept until the next rejected call overwrites it.
type ErrCode uint8

const (
	ErrNone             ErrCode = 0
	ErrCondInvalid      ErrCode = 1
	ErrCondAlloc        ErrCode = 2
	ErrMutexInvalid     ErrCode = 3
	ErrMutexAlloc       ErrCode = 4
	ErrMutexNotMine     ErrCode = 5
	ErrMutexLocked      ErrCode = 6
	ErrSemInvalid       ErrCode = 7
	ErrSemAlloc         ErrCode = 8
	ErrThreadInvalid    ErrCode = 9
	ErrThreadAlloc      ErrCode = 10
	ErrThreadSmallStack ErrCode = 11
	ErrIRQInvalid       ErrCode = 12
	ErrObjectInvalid    ErrCode = 13
	ErrObjectAlloc      ErrCode = 14
	ErrGateInvalid      ErrCode = 15
	ErrGateAlloc        ErrCode = 16
	ErrGateUnlocked     ErrCode = 17
	ErrFlagInvalid      ErrCode = 18
	ErrFlagAlloc        ErrCode = 19
	ErrEvsetInvalid     ErrCode = 20
	ErrEvsetAlloc       ErrCode = 21
	ErrEventOutOfRange  ErrCode = 22
	ErrSyscallInvalid   ErrCode = 26
	ErrCriticalExit     ErrCode = 27
)

func (c ErrCode) String() string {
	switch c {
	case ErrNone:
		return "none"
	case ErrCondInvalid:
		return "invalid cond"
	case ErrCondAlloc:
		return "cond not allocated"
	case ErrMutexInvalid:
		return "invalid mutex"
	case ErrMutexAlloc:
		return "mutex not allocated"
	case ErrMutexNotMine:
		return "mutex not owned"
	case ErrMutexLocked:
		return "mutex already locked"
	case ErrSemInvalid:
		return "invalid semaphore"
	case ErrSemAlloc:
		return "semaphore not allocated"
	case ErrThreadInvalid:
		return "invalid thread"
	case ErrThreadAlloc:
		return "thread not allocated"
	case ErrThreadSmallStack:
		return "stack too small"
	case ErrIRQInvalid:
		return "invalid irq"
	case ErrObjectInvalid:
		return "invalid object"
	case ErrObjectAlloc:
		return "object not allocated"
	case ErrGateInvalid:
		return "invalid gate"
	case ErrGateAlloc:
		return "gate not allocated"
	case ErrGateUnlocked:
		return "gate not locked"
	case ErrFlagInvalid:
		return "invalid flag"
	case ErrFlagAlloc:
		return "flag not allocated"
	case ErrEvsetInvalid:
		return "invalid event set"
	case ErrEvsetAlloc:
		return "event set not allocated"
	case ErrEventOutOfRange:
		return "event out of range"
	case ErrSyscallInvalid:
		return "invalid system call"
	case ErrCriticalExit:
		return "critical section exit"
	default:
		return "error " + strconv.Itoa(int(c))
	}
}
