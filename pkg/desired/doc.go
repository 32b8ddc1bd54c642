/*
Package desired loads the declarative list of model workloads modelkeeper keeps
running.

The list is read once at startup and is read-only afterwards; there is no hot
reload. The file format follows the extension: .toml files are parsed with
BurntSushi/toml, everything else as YAML.

	models:
	  - name: qwen2.5-instruct   # required
	    type: LLM                # required
	    engine: vllm             # optional
	    uid: qwen-chat           # optional, unique when present

Every failure (missing file, parse error, missing top-level "models" key,
entries that are not mappings, missing required fields, duplicate uids) is
reported as a *config.Error and is fatal at startup.
*/
package desired
