package config

// SettingsTemplate is written by `manage init`. It documents every setting
// with its default value.
const SettingsTemplate = `# manage settings
# Loaded from $OCTOOLSBIN, or the nearest directory above the working
# directory that contains settings.yaml. Overlays, applied in order:
#   settings.<profile>.yaml        (-p <profile>, skipped with -P)
#   settings.local.yaml            (-l)
#   settings.<profile>.local.yaml  (-l with -p)

# Project name is <project_namespace>-<environment> unless project is set.
project_namespace: devex-von
# project: devex-von-tools

# Container-platform CLI
oc_binary: oc

# Resource kind scaled down while a database is recreated (dc or deployment)
workload_kind: dc

# Pods are found by <pod_selector_label>=<pod name>
pod_selector_label: name

# How long to wait for pods to start or stop
pod_wait: 2m

# Run inside the API pod to rebuild the search index
search_index_command: ./scripts/rebuildSearchIndex.sh

# Run locally with the DID names as arguments
register_dids_command: registerDids.sh

database:
  # Statements run with psql inside the database pod; ${VAR} is expanded by
  # the pod's shell.
  commands:
    - DROP DATABASE IF EXISTS "${POSTGRESQL_DATABASE}";
    - CREATE DATABASE "${POSTGRESQL_DATABASE}";
    - GRANT ALL ON DATABASE "${POSTGRESQL_DATABASE}" TO "${POSTGRESQL_USER}";

# Extra variables exported to every external command
# env:
#   LEDGER_SEED_DIR: ${HOME}/.seeds
#   ADMIN_TOKEN:
#     from_file: ~/.secrets/admin-token
`
