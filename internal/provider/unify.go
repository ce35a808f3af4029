package provider

import "sort"

// SortComments orders a mixed sequence of general and review comments
// ascending by creation time. The sort is stable so comments sharing a
// timestamp keep their source order.
func SortComments(comments []UnifiedComment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

// MergeComments concatenates comment slices from independent fetches
// into one time-ordered sequence.
func MergeComments(groups ...[]UnifiedComment) []UnifiedComment {
	var merged []UnifiedComment
	for _, g := range groups {
		merged = append(merged, g...)
	}
	SortComments(merged)
	return merged
}
