package binding

// Element is the rendering surface a binding drives.
type Element interface {
	// Render shows one value.
	Render(value any)
	// Clear removes any content.
	Clear()
	// SetText replaces the content with plain text.
	SetText(text string)
}

// ElementFunc adapts a render function to Element. Clear renders nil and
// SetText renders the text.
type ElementFunc func(value any)

func (f ElementFunc) Render(value any)    { f(value) }
func (f ElementFunc) Clear()              { f(nil) }
func (f ElementFunc) SetText(text string) { f(text) }
