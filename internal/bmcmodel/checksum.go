// SPDX-License-Identifier: BSD-3-Clause

package bmcmodel

import "hash/fnv"

// ChecksumUnset marks a profile checksum as not yet computed. Zero is
// reserved rather than treated as a valid checksum value, mirroring the
// original implementation's "0 means not yet learned" convention.
const ChecksumUnset uint32 = 0

// SensorProfileChecksum hashes the structural identity of a host's sensor
// table: name, type, data type and group membership, in table order. It
// excludes runtime fields and thresholds, so a threshold change alone
// does not change it.
func SensorProfileChecksum(sensors []Sensor) uint32 {
	h := fnv.New32a()
	for _, s := range sensors {
		writeStr(h, s.Name)
		writeStr(h, string(s.SensorType))
		writeStr(h, string(s.DataType))
		writeInt(h, int(s.GroupID))
	}
	return foldNonZero(h.Sum32())
}

// SampleProfileChecksum hashes the set of sensor names a BMC sample
// reported, in the order reported. The monitor FSM's Check stage stores
// it as the host's SampleChecksum, and it is matched against the known
// Quanta profile checksum. It is not compared against
// SensorProfileChecksum, and no checksum change starts a relearn.
func SampleProfileChecksum(sampleNames []string) uint32 {
	h := fnv.New32a()
	for _, n := range sampleNames {
		writeStr(h, n)
	}
	return foldNonZero(h.Sum32())
}

func writeStr(h interface{ Write([]byte) (int, error) }, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0})
}

func writeInt(h interface{ Write([]byte) (int, error) }, n int) {
	h.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
}

// foldNonZero nudges a hash off zero so ChecksumUnset stays unambiguous.
func foldNonZero(v uint32) uint32 {
	if v == ChecksumUnset {
		return 1
	}
	return v
}
