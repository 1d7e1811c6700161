package browser

import "fmt"

// stealthScript returns the anti-automation property overrides injected into
// every new document before any page script runs: webdriver flag, plugin
// and language lists, chrome.runtime, the permissions query quirk and WebGL
// vendor strings are all aligned with the active fingerprint.
func stealthScript(fp Fingerprint) string {
	return fmt.Sprintf(`
		Object.defineProperty(navigator, 'webdriver', {
			get: () => undefined,
			configurable: true
		});

		Object.defineProperty(navigator, 'plugins', {
			get: () => {
				const plugins = [
					{ name: 'PDF Viewer', filename: 'internal-pdf-viewer' },
					{ name: 'Chrome PDF Viewer', filename: 'internal-pdf-viewer' },
					{ name: 'Chromium PDF Viewer', filename: 'internal-pdf-viewer' }
				];
				plugins.length = 3;
				return plugins;
			},
			configurable: true
		});

		Object.defineProperty(navigator, 'languages', {
			get: () => ['en-US', 'en'],
			configurable: true
		});

		Object.defineProperty(navigator, 'platform', {
			get: () => %q,
			configurable: true
		});

		if (!window.chrome) window.chrome = {};
		window.chrome.runtime = { id: undefined };

		const originalQuery = window.navigator.permissions.query;
		window.navigator.permissions.query = (parameters) => (
			parameters.name === 'notifications' ?
				Promise.resolve({ state: Notification.permission }) :
				originalQuery(parameters)
		);

		const getParameter = WebGLRenderingContext.prototype.getParameter;
		WebGLRenderingContext.prototype.getParameter = function(parameter) {
			if (parameter === 37445) return %q;
			if (parameter === 37446) return %q;
			return getParameter.call(this, parameter);
		};
	`, fp.Platform, fp.WebGLVendor, fp.WebGLRenderer)
}
