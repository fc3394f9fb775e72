package classsearch

import "slices"

// Aggregate verifies every candidate's class-name listing with m and merges the
// matches by fully qualified class name.
//
// The first artifact a class is seen in fixes its group, artifact, package and class
// name; later artifacts only add versions. New classes stop being admitted once
// maxResult classes are held, but versions of admitted classes keep merging.
// Results come back in admission order.
func Aggregate(candidates []RawCandidate, m *Matcher, maxResult int) []*ClassSearchResult {
	if m == nil || maxResult <= 0 {
		return nil
	}

	byName := make(map[string]*ClassSearchResult)
	var ordered []*ClassSearchResult

	for _, c := range candidates {
		if !c.HasClassNames {
			continue
		}

		for _, fqn := range m.FindAll(c.ClassNames) {
			if existing, ok := byName[fqn]; ok {
				existing.addVersion(c.Artifact.Version)
				continue
			}
			if len(ordered) >= maxResult {
				continue
			}

			pkg, class := splitQualifiedName(fqn)
			r := &ClassSearchResult{
				ClassName:   class,
				PackageName: pkg,
				Artifact: ArtifactInfo{
					GroupID:    c.Artifact.GroupID,
					ArtifactID: c.Artifact.ArtifactID,
					Versions:   []string{c.Artifact.Version},
				},
			}
			byName[fqn] = r
			ordered = append(ordered, r)
		}
	}

	return ordered
}

// addVersion appends v unless it is already listed.
func (r *ClassSearchResult) addVersion(v string) {
	if slices.Contains(r.Artifact.Versions, v) {
		return
	}
	r.Artifact.Versions = append(r.Artifact.Versions, v)
}
