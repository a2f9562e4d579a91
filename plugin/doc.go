// Package plugin assembles independently-versioned bridge modules into the
// one call table exposed to the guest.
//
// Each bridge registers a Descriptor before guest instantiation; all
// register functions populate a single shared Table that becomes the guest's
// "env" import module. After instantiation, every descriptor whose name
// matches a guest-exported "<name>_version" function gets an advisory
// version comparison: mismatches are logged with plugin name, host version
// and guest-declared version, and load proceeds regardless.
package plugin
