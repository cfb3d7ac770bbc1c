package procexec

import (
	"encoding/json"
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// Handle is the host side's control surface over a launched worker
// process: enough to ask its PID, wait for it to exit, or kill its whole
// process group (mirroring the cmd.Kill pattern of sending SIGKILL to the
// negative PID, since a worker may itself spawn further descendants).
type Handle struct {
	cmd *exec.Cmd
}

// PID returns the worker process's OS process ID.
func (h *Handle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Wait blocks until the worker process exits and returns its exit error,
// if any.
func (h *Handle) Wait() error {
	return h.cmd.Wait()
}

// Kill sends SIGKILL to the worker's whole process group.
func (h *Handle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-h.cmd.Process.Pid, syscall.SIGKILL)
}

// Launch re-execs the current binary (os.Executable) with the environment
// markers RunWorkerIfChild looks for, wires up two os.Pipe pairs as its
// fd 3/4, and returns a Handle plus a PipeConn connected to the child's
// other end. workerName must have been registered via RegisterWorker in
// this same binary. kwargs, if non-nil, is JSON-marshaled and handed to
// the child through an environment variable.
func Launch(workerName string, kwargs interface{}) (*Handle, *PipeConn, error) {
	if _, ok := lookupWorker(workerName); !ok {
		return nil, nil, errors.Errorf("procexec: worker %q is not registered in this binary", workerName)
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, nil, errors.Wrap(err, "procexec: resolving current executable")
	}

	// hostToChild: host writes, child reads. childToHost: child writes, host reads.
	childR, hostW, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.Wrap(err, "procexec: creating host-to-child pipe")
	}
	hostR, childW, err := os.Pipe()
	if err != nil {
		_ = childR.Close()
		_ = hostW.Close()
		return nil, nil, errors.Wrap(err, "procexec: creating child-to-host pipe")
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{childR, childW} // fd 3, fd 4 in the child
	cmd.Env = append(os.Environ(), envWorkerName+"="+workerName)
	if kwargs != nil {
		raw, err := json.Marshal(kwargs)
		if err != nil {
			_ = childR.Close()
			_ = childW.Close()
			_ = hostR.Close()
			_ = hostW.Close()
			return nil, nil, errors.Wrap(err, "procexec: marshaling worker kwargs")
		}
		cmd.Env = append(cmd.Env, envWorkerKwargs+"="+string(raw))
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		_ = childR.Close()
		_ = childW.Close()
		_ = hostR.Close()
		_ = hostW.Close()
		return nil, nil, errors.Wrap(err, "procexec: starting worker process")
	}

	// The child has its own copies of these fds now; the host's copies
	// would otherwise keep the pipe "open for writing" from the host's
	// perspective even after the child exits.
	_ = childR.Close()
	_ = childW.Close()

	conn := NewPipeConn(hostR, hostW)
	return &Handle{cmd: cmd}, conn, nil
}
