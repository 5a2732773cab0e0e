// Package definitions holds the index definitions for the CMS content types.
//
// A Set holds one definition per content type and is shared by the Services
// of every site, so each definition's cached Searcher is shared as well.
package definitions
