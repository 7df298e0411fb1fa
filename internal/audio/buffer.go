package audio

// Buffer holds decoded audio as one float slice per channel, samples in
// [-1, 1]. It lives only for the duration of an extraction.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NumberOfChannels returns the channel count.
func (b *Buffer) NumberOfChannels() int { return len(b.Channels) }

// Length returns the number of samples per channel.
func (b *Buffer) Length() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Length()) / float64(b.SampleRate)
}

// ChannelData returns the samples of channel ch.
func (b *Buffer) ChannelData(ch int) []float32 { return b.Channels[ch] }

// Mono averages all channels sample-wise with equal weight.
func (b *Buffer) Mono() []float64 {
	n := b.Length()
	mono := make([]float64, n)
	channels := len(b.Channels)
	if channels == 0 {
		return mono
	}
	for _, data := range b.Channels {
		for i := 0; i < n && i < len(data); i++ {
			mono[i] += float64(data[i])
		}
	}
	if channels > 1 {
		for i := range mono {
			mono[i] /= float64(channels)
		}
	}
	return mono
}

// deinterleave splits interleaved samples into per-channel slices, dropping
// a trailing partial frame.
func deinterleave(samples []float32, channels int) [][]float32 {
	if channels <= 0 {
		return nil
	}
	frames := len(samples) / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out[ch][i] = samples[i*channels+ch]
		}
	}
	return out
}
