/*
Package types defines the data model shared by modelkeeper components.

The model is intentionally small:

  - WorkloadSpec: one desired model workload (name, type, engine, uid)
  - ActiveSet: identifiers the backend reports as running at a point in time

WorkloadSpec values are loaded once from the configuration file and never
mutated afterwards. An ActiveSet is rebuilt on every reconciliation tick and
is never cached across ticks.

# Identity

A spec is matched against the backend only by UID. A spec without a UID is
never considered running; every tick launches it again and the backend
assigns a fresh identifier. Pin a UID in the configuration to make a workload
idempotent across ticks:

	models:
	  - name: qwen2.5-instruct
	    type: LLM
	    engine: vllm
	    uid: qwen-chat
*/
package types
