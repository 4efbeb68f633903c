package migration

import "errors"

var (
	errAlreadyApplied = errors.New("migration is already applied")
	errNotApplied     = errors.New("migration is not applied")
)

// Pending returns the migrations whose version is not in applied, keeping
// their order.
func Pending(migrations []Migration, applied map[string]bool) []Migration {
	out := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if !applied[m.Version] {
			out = append(out, m)
		}
	}
	return out
}

// MergeStatus returns one record per migration file: the tracked record
// when there is one, a pending record otherwise.
func MergeStatus(migrations []Migration, records []MigrationRecord) []MigrationRecord {
	byVersion := make(map[string]MigrationRecord, len(records))
	for _, r := range records {
		byVersion[r.Version] = r
	}

	out := make([]MigrationRecord, 0, len(migrations))
	for _, m := range migrations {
		if r, ok := byVersion[m.Version]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, MigrationRecord{Version: m.Version, Name: m.Name, Status: StatusPending})
	}
	return out
}

// MissingFiles lists tracked versions that have no migration file.
func MissingFiles(migrations []Migration, records []MigrationRecord) []string {
	known := make(map[string]bool, len(migrations))
	for _, m := range migrations {
		known[m.Version] = true
	}
	var missing []string
	for _, r := range records {
		if !known[r.Version] {
			missing = append(missing, r.Version)
		}
	}
	return missing
}
