// Package table implements the fixed-capacity process table. It owns every
// PCB, allocates pids with a wrap-around search and resolves pids to slots in
// constant time.
package table
