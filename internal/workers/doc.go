// Package workers calculates worker pool sizes for concurrent tasks based on
// available CPU resources and task characteristics.
package workers
