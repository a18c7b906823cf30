// Package input implements controller and Zapper handling for the NES.
package input

// Button represents NES controller buttons.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller is a standard NES joypad: an 8-bit parallel-load shift register
// latched on strobe and read back one bit at a time through $4016/$4017.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool
}

// New creates a new Controller instance.
func New() *Controller {
	return &Controller{}
}

// SetButton sets the pressed state of a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight button states at once, in
// A, B, Select, Start, Up, Down, Left, Right order.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	order := []Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(order[i])
		}
	}
}

// IsPressed returns true if the button is currently pressed.
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles a write to the controller's strobe line. While strobe is
// high, the shift register continuously reloads from live button state;
// the falling edge latches whatever it last held.
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// Read shifts out the next bit. While strobe is high, bit 0 (button A)
// repeats on every read. After the 8th read, every further read returns 1,
// matching real 4021 shift-register behavior.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.buttons & 1
	}
	result := c.shiftRegister & 1
	c.shiftRegister = (c.shiftRegister >> 1) | 0x80
	return result
}

// Reset clears all controller state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// Zapper models the NES light gun on controller port 2: a light sensor
// (bit 3, active low when aimed at a bright pixel) and a trigger (bit 4,
// active low while pressed).
type Zapper struct {
	aimX, aimY int
	aimValid   bool
	triggered  bool
}

// NewZapper creates a Zapper with no current aim point.
func NewZapper() *Zapper {
	return &Zapper{}
}

// SetAim records the screen coordinate the host currently aims at.
func (z *Zapper) SetAim(x, y int, valid bool) {
	z.aimX, z.aimY = x, y
	z.aimValid = valid
}

// SetTrigger records whether the trigger is currently pulled.
func (z *Zapper) SetTrigger(pressed bool) {
	z.triggered = pressed
}

// PixelSampler supplies the rendered RGB value at a screen coordinate, used
// by the Zapper's light sensor. Implemented by *ppu.PPU.
type PixelSampler interface {
	SamplePixel(x, y int) uint32
}

// Read returns the Zapper's two status bits packed as they appear on
// $4017: bit 3 is the light sensor, bit 4 is the trigger.
func (z *Zapper) Read(frame PixelSampler) uint8 {
	var result uint8 = 0x18 // both bits default high (unlit, untriggered)

	if z.aimValid {
		rgb := frame.SamplePixel(z.aimX, z.aimY)
		r := float64((rgb >> 16) & 0xFF)
		g := float64((rgb >> 8) & 0xFF)
		b := float64(rgb & 0xFF)
		luminance := 0.299*r + 0.587*g + 0.114*b
		if luminance >= 180 {
			result &^= 0x08
		}
	}

	if z.triggered {
		result &^= 0x10
	}

	return result
}

// InputState owns both controller ports and the optional Zapper installed
// on port 2 in place of Controller2.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
	Zapper      *Zapper

	zapperInstalled bool
	frame           PixelSampler
}

// NewInputState creates a new input state with two standard controllers.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
		Zapper:      NewZapper(),
	}
}

// InstallZapper swaps port 2 from a standard controller to the Zapper,
// sourcing its light sensor from the given frame sampler (the live PPU).
func (is *InputState) InstallZapper(frame PixelSampler) {
	is.zapperInstalled = true
	is.frame = frame
}

// Reset clears both controllers and the Zapper's trigger/aim state.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
	is.Zapper.SetAim(0, 0, false)
	is.Zapper.SetTrigger(false)
}

// SetButtons1 sets all button states for controller 1.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read services CPU reads of $4016/$4017. Controller 2's slot returns
// Zapper status instead of shift-register bits when a Zapper is installed.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read() | 0x40
	case 0x4017:
		if is.zapperInstalled {
			return is.Zapper.Read(is.frame) | 0x40
		}
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write latches both controller shift registers from the $4016 strobe bit.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
