package picture

// Coord is the top-left sample of a block, in luma samples.
type Coord struct {
	Row, Col int
}

// Grid walks a picture in coding order: raster over full blocks, with the four
// quadrants of a split block visited top-left, top-right, bottom-left,
// bottom-right before moving on.
type Grid struct {
	Width, Height int
	Block         int
}

// Done reports whether c is past the last block.
func (g Grid) Done(c Coord) bool { return c.Row >= g.Height }

// Next returns the coordinate following a size x size block at c.
func (g Grid) Next(c Coord, size int) Coord {
	full := g.Block
	if size == full {
		c.Col += full
	} else {
		half := size
		switch {
		case c.Col%full == 0:
			c.Col += half
		case c.Row%full == 0:
			c.Row += half
			c.Col -= half
		default:
			c.Row -= half
			c.Col += half
		}
	}
	if c.Col >= g.Width {
		c.Row += full
		c.Col = 0
	}
	return c
}

// Quadrants lists the four half-size origins of the full block at c in Z order.
func (g Grid) Quadrants(c Coord) [4]Coord {
	h := g.Block / 2
	return [4]Coord{
		{c.Row, c.Col},
		{c.Row, c.Col + h},
		{c.Row + h, c.Col},
		{c.Row + h, c.Col + h},
	}
}

// Blocks is the number of full blocks in the picture.
func (g Grid) Blocks() int { return (g.Width / g.Block) * (g.Height / g.Block) }
