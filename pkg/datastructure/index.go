package datastructure

// Index position of a vertex, edge or record inside its owning slice.
type Index uint32
