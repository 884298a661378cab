package enums

// DevicePlatform classifies where a push token was issued.
type DevicePlatform string

const (
	DevicePlatformWeb     DevicePlatform = "web"
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformIOS     DevicePlatform = "ios"
)

// String implements fmt.Stringer.
func (p DevicePlatform) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p DevicePlatform) IsValid() bool {
	return p == DevicePlatformWeb || p == DevicePlatformAndroid || p == DevicePlatformIOS
}

// ParseDevicePlatform converts raw input into a DevicePlatform, defaulting to web.
func ParseDevicePlatform(value string) DevicePlatform {
	switch DevicePlatform(value) {
	case DevicePlatformAndroid:
		return DevicePlatformAndroid
	case DevicePlatformIOS:
		return DevicePlatformIOS
	}
	return DevicePlatformWeb
}
