// Provides platform-appropriate paths for cruximg.
//
// Locations follow XDG conventions on Linux and the native conventions on
// macOS and Windows, always under a "cruximg" subdirectory. Nothing here
// creates directories; callers do that when they first write.
package paths
