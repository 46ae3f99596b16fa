// Package procsched provides an embeddable priority-queue process scheduler.
//
// A fixed-capacity process table holds process control blocks; ready
// processes wait in one FIFO queue per priority level (level 0 runs first);
// a single-core scheduler dispatches the highest-priority ready process; the
// lifecycle manager creates, terminates, reparents and reaps processes. One
// mutex guards table, queues and the running pid.
//
// Typical use goes through the Service façade exposed by the root package:
//
//	srv, _ := procsched.New()
//	rt := srv.Runtime()
//	initd, _ := rt.CreateProcess(ctx, "initd", process.NoPID, 2)
//	worker, _ := rt.CreateProcess(ctx, "worker", initd, 5)
//	pid, _ := rt.Schedule() // initd
//	_ = rt.TerminateProcess(ctx, worker, 0)
//
// Runtime.Start launches a timer that wakes sleeping processes and, when a
// quantum is configured, preempts the running one.
package procsched
