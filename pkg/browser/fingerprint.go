package browser

import "math/rand"

// Fingerprint is one browser-observable identity preset: viewport, user
// agent, languages and platform. Presets are fixed rather than generated so
// every value is one a real browser population actually presents.
type Fingerprint struct {
	UserAgent      string
	ViewportWidth  int64
	ViewportHeight int64
	AcceptLanguage string
	Platform       string
	WebGLVendor    string
	WebGLRenderer  string
}

var fingerprintPool = []Fingerprint{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-US,en;q=0.9",
		Platform:       "Win32",
		WebGLVendor:    "Google Inc. (NVIDIA)",
		WebGLRenderer:  "ANGLE (NVIDIA, NVIDIA GeForce GTX 1660 Direct3D11 vs_5_0 ps_5_0, D3D11)",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		ViewportWidth:  1440,
		ViewportHeight: 900,
		AcceptLanguage: "en-US,en;q=0.9",
		Platform:       "MacIntel",
		WebGLVendor:    "Intel Inc.",
		WebGLRenderer:  "Intel Iris OpenGL Engine",
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		ViewportWidth:  1536,
		ViewportHeight: 864,
		AcceptLanguage: "en-US,en;q=0.8",
		Platform:       "Win32",
		WebGLVendor:    "Google Inc. (Intel)",
		WebGLRenderer:  "ANGLE (Intel, Intel(R) UHD Graphics 620 Direct3D11 vs_5_0 ps_5_0, D3D11)",
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1366,
		ViewportHeight: 768,
		AcceptLanguage: "en-US,en;q=0.9",
		Platform:       "Linux x86_64",
		WebGLVendor:    "Mesa",
		WebGLRenderer:  "Mesa Intel(R) UHD Graphics (CML GT2)",
	},
}

// RandomFingerprint picks a preset from the pool.
func RandomFingerprint() Fingerprint {
	return fingerprintPool[rand.Intn(len(fingerprintPool))]
}
