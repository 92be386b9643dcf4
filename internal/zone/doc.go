// Package zone owns the device-to-zone mapping.
//
// Zone resolution never fails: a device without an explicit assignment
// belongs to the default "unassigned" zone. Zone names are registered
// implicitly on first use.
package zone
