package gif

// BlockKind tags what a block-filter invocation is being asked about.
// The predicate's context is a tagged variant carrying at minimum the
// block identifier.
type BlockKind int

const (
	BlockLogicalScreenDescriptor BlockKind = iota
	BlockGlobalColorTable
	BlockGraphicControlExtension
	BlockCommentExtension
	BlockPlainTextExtension
	BlockApplicationExtension
	BlockUnknownExtension
	BlockImageDescriptor
	BlockLocalColorTable
	BlockImageDataHeader
	BlockImageDataSubBlock
)

// FilterContext is passed to a Filter predicate on every consulted
// block. FrameIndex is the index of the frame in progress (the next
// image descriptor's index for extensions that precede it), or -1 for
// the logical screen descriptor and global color table read by Open.
type FilterContext struct {
	Kind          BlockKind
	FrameIndex    int
	ExtensionByte byte // populated for extension-related kinds
}

// Filter is a caller-supplied, pure, synchronous predicate consulted
// before each block is consumed. Returning true tells the parser to
// advance past the block (including any trailing sub-block chain)
// without producing side effects: no decode, no color-table read. The
// default filter admits every block.
type Filter func(ctx FilterContext) bool

func admitAll(FilterContext) bool { return false }
