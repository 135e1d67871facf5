/*
Package metrics bridges axcore's internal counters into Prometheus.

The core packages keep their accounting in atomics and expose them as
point-in-time snapshots. This package turns those snapshots into pull-style
Prometheus metrics: every scrape reads the live counters through func-based
collectors, so nothing in a hot path touches a Prometheus client type.

# Core types

  - Collector: one prometheus.Collector aggregating the run loop, the
    marshaling layer, the event bridge, and the traversal engine.

# Metric groups

  - Run loop: jobs performed and scheduled, job panics, queue depth,
    cumulative busy time.
  - Elements: reads, absences, boundary errors, defects, undecodable
    values, truncations.
  - Event bridge: delivered, dropped, and missed events, active observers.
  - Walker: walks started, frames yielded, truncated walks.
*/
package metrics
