package layout

import "math"

// Config holds force and cooling parameters for one simulation.
type Config struct {
	// Repulsion is the magnitude of the negative charge between all node
	// pairs. Typical values are 100 to 3500.
	Repulsion float64 `toml:"repulsion"`
	CenterX   float64 `toml:"center_x"`
	CenterY   float64 `toml:"center_y"`
	// LinkDistance is the spring rest length. Zero uses DefaultLinkDistance.
	LinkDistance float64 `toml:"link_distance"`
	// CollisionRadius enforces a minimum separation of twice the radius
	// between node centers. Zero disables collision.
	CollisionRadius float64 `toml:"collision_radius"`

	AlphaMin      float64 `toml:"alpha_min"`
	AlphaDecay    float64 `toml:"alpha_decay"`
	VelocityDecay float64 `toml:"velocity_decay"`
	// ReheatTarget is the alpha target held while a node is dragged.
	ReheatTarget float64 `toml:"reheat_target"`
	// MaxTicks bounds RunUntilSettled. Zero means DefaultMaxTicks.
	MaxTicks int `toml:"max_ticks"`
	// Seed makes the jitter used for coincident nodes reproducible.
	Seed uint64 `toml:"seed"`
}

const (
	DefaultRepulsion     = 300
	DefaultLinkDistance  = 30
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	DefaultReheatTarget  = 0.3
	DefaultMaxTicks      = 1000
	collisionStrength    = 0.7
	initialRadius        = 10
)

var (
	// DefaultAlphaDecay cools from 1 to DefaultAlphaMin in about 300 ticks.
	DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)
	initialAngle      = math.Pi * (3 - math.Sqrt(5))
)

// DefaultConfig returns the default layout parameters centered on (0, 0).
func DefaultConfig() Config {
	return Config{
		Repulsion:     DefaultRepulsion,
		LinkDistance:  DefaultLinkDistance,
		AlphaMin:      DefaultAlphaMin,
		AlphaDecay:    DefaultAlphaDecay,
		VelocityDecay: DefaultVelocityDecay,
		ReheatTarget:  DefaultReheatTarget,
		MaxTicks:      DefaultMaxTicks,
		Seed:          1,
	}
}

// normalized fills zero values with defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.LinkDistance <= 0 {
		c.LinkDistance = d.LinkDistance
	}
	if c.AlphaMin <= 0 {
		c.AlphaMin = d.AlphaMin
	}
	if c.AlphaDecay <= 0 || c.AlphaDecay >= 1 {
		c.AlphaDecay = d.AlphaDecay
	}
	if c.VelocityDecay <= 0 || c.VelocityDecay >= 1 {
		c.VelocityDecay = d.VelocityDecay
	}
	if c.ReheatTarget <= 0 {
		c.ReheatTarget = d.ReheatTarget
	}
	if c.MaxTicks <= 0 {
		c.MaxTicks = d.MaxTicks
	}
	if c.Repulsion < 0 {
		c.Repulsion = -c.Repulsion
	}
	return c
}
