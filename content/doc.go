// Package content maps a predicted genre label to the media shown next to it.
//
// Every label resolves to a bundle of exactly three images, three videos and three
// captions. Labels without a curated bundle, including labels outside the known
// genre list, get the default bundle.
package content
