package layout

import "math"

// Forces accumulate into the velocity arrays; only centering moves
// positions directly. Pinned nodes are overwritten during integration.

func (s *Simulation) initLinks() {
	degree := make([]float64, len(s.nodes))
	for _, l := range s.links {
		degree[s.index[l.Source]]++
		degree[s.index[l.Target]]++
	}
	s.linkStrength = make([]float64, len(s.links))
	s.linkBias = make([]float64, len(s.links))
	for i, l := range s.links {
		ds, dt := degree[s.index[l.Source]], degree[s.index[l.Target]]
		s.linkStrength[i] = 1 / math.Min(ds, dt)
		s.linkBias[i] = ds / (ds + dt)
	}
}

// applySprings pulls linked nodes towards the rest length.
func (s *Simulation) applySprings() {
	for i, l := range s.links {
		si, ti := s.index[l.Source], s.index[l.Target]
		src, dst := s.nodes[si], s.nodes[ti]

		x := dst.X + s.vx[ti] - src.X - s.vx[si]
		y := dst.Y + s.vy[ti] - src.Y - s.vy[si]
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - s.cfg.LinkDistance) / d * s.alpha * s.linkStrength[i]
		x *= k
		y *= k

		b := s.linkBias[i]
		s.vx[ti] -= x * b
		s.vy[ti] -= y * b
		s.vx[si] += x * (1 - b)
		s.vy[si] += y * (1 - b)
	}
}

// applyRepulsion pushes every pair of nodes apart.
func (s *Simulation) applyRepulsion() {
	if s.cfg.Repulsion == 0 {
		return
	}
	strength := -s.cfg.Repulsion
	for i, a := range s.nodes {
		for j, b := range s.nodes {
			if i == j {
				continue
			}
			dx := b.X - a.X
			dy := b.Y - a.Y
			if dx == 0 {
				dx = s.jiggle()
			}
			if dy == 0 {
				dy = s.jiggle()
			}
			l := dx*dx + dy*dy
			if l < 1 {
				l = math.Sqrt(l)
			}
			w := strength * s.alpha / l
			s.vx[i] += dx * w
			s.vy[i] += dy * w
		}
	}
}

// applyCollision separates node centers closer than twice the radius.
func (s *Simulation) applyCollision() {
	r := s.cfg.CollisionRadius
	if r <= 0 {
		return
	}
	sep := 2 * r
	for i := 0; i < len(s.nodes); i++ {
		a := s.nodes[i]
		for j := i + 1; j < len(s.nodes); j++ {
			b := s.nodes[j]
			x := a.X + s.vx[i] - b.X - s.vx[j]
			y := a.Y + s.vy[i] - b.Y - s.vy[j]
			l := x*x + y*y
			if l >= sep*sep {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			d := math.Sqrt(l)
			k := (sep - d) / d * collisionStrength
			x *= k
			y *= k
			s.vx[i] += x / 2
			s.vy[i] += y / 2
			s.vx[j] -= x / 2
			s.vy[j] -= y / 2
		}
	}
}

// applyCentering shifts every node so the mass centroid sits on the
// center point.
func (s *Simulation) applyCentering() {
	if len(s.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range s.nodes {
		sx += n.X
		sy += n.Y
	}
	n := float64(len(s.nodes))
	dx := s.cfg.CenterX - sx/n
	dy := s.cfg.CenterY - sy/n
	for _, node := range s.nodes {
		node.X += dx
		node.Y += dy
	}
}

// integrate applies velocity decay and moves free nodes. Pinned nodes take
// their pin exactly and lose their velocity.
func (s *Simulation) integrate() {
	keep := 1 - s.cfg.VelocityDecay
	for i, n := range s.nodes {
		if n.Pinned != nil {
			n.X, n.Y = n.Pinned.X, n.Pinned.Y
			s.vx[i], s.vy[i] = 0, 0
		} else {
			s.vx[i] *= keep
			s.vy[i] *= keep
			n.X += s.vx[i]
			n.Y += s.vy[i]
		}
		n.Placed = true
	}
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
