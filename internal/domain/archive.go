package domain

import "strings"

// ArchiveSeparator trennt Narrativ-Fragmente im Rohtranskript sichtbar.
const ArchiveSeparator = "\n\n---\n\n"

// AppendFragment hängt ein neues Fragment an das Archiv an. Bestehender
// Inhalt wird nie gekürzt, umsortiert oder umgeschrieben.
func AppendFragment(archive, fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return archive
	}
	if strings.TrimSpace(archive) == "" {
		return fragment
	}
	return archive + ArchiveSeparator + fragment
}

// ArchiveFragments zerlegt ein Archiv zurück in seine Fragmente in
// Commit-Reihenfolge.
func ArchiveFragments(archive string) []string {
	if strings.TrimSpace(archive) == "" {
		return nil
	}
	return strings.Split(archive, ArchiveSeparator)
}
