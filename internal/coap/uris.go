package coap

// Thread-specific CoAP resource paths (§4.9–§4.11), taken from the
// original implementation's address-resolver/network-data URI set since
// the distilled spec names the exchanges but not their wire paths.
const (
	URIAddressSolicit = "a/as" // Child/router requests an RLOC16 from the Leader.
	URIAddressRelease = "a/ar" // Router returns its RLOC16 on graceful removal.
	URIAddressQuery   = "a/aq" // Multicast query for an EID's owning RLOC16.
	URIAddressNotify  = "a/an" // Unicast reply to an Address-Query.
	URIAddressError   = "a/ae" // Notifies a prior RLOC16 owner of an EID conflict.
	URIServerData     = "a/sd" // Local network data registers with the Leader.
)
