package detect

// probeEvent is one candidate raw encoding used only to stress-test how
// many simultaneous counters a CPU supports; it is unrelated to
// catalog.Event; the probe never needs descriptions.
type probeEvent struct {
	name     string
	encoding uint64
}

// probeEvents is the fixed list of ARMv8-style raw events the detector
// opens in increasing numbers until the kernel starts multiplexing. The
// "chain" event (0x001e) is deliberately excluded: opening it has been
// observed to cause spurious open failures during probing.
var probeEvents = []probeEvent{
	{"l1i_cache_refill", 0x0001},
	{"l1i_tlb_refill", 0x0002},
	{"l1d_cache_refill", 0x0003},
	{"l1d_cache", 0x0004},
	{"l1d_tlb_refill", 0x0005},
	{"ld_retired", 0x0006},
	{"st_retired", 0x0007},
	{"inst_retired", 0x0008},
	{"exc_taken", 0x0009},
	{"exc_return", 0x000a},
	{"cid_write_retired", 0x000b},
	{"pc_write_retired", 0x000c},
	{"br_immed_retired", 0x000d},
	{"br_return_retired", 0x000e},
	{"unaligned_ldst_retired", 0x000f},
	{"br_mis_pred", 0x0010},
	{"cpu_cycles", 0x0011},
	{"br_pred", 0x0012},
	{"mem_access", 0x0013},
	{"l1i_cache", 0x0014},
	{"l1d_cache_wb", 0x0015},
	{"l2d_cache", 0x0016},
	{"l2d_cache_refill", 0x0017},
	{"l2d_cache_wb", 0x0018},
	{"bus_access", 0x0019},
	{"memory_error", 0x001a},
	{"inst_spec", 0x001b},
	{"ttbr_write_retired", 0x001c},
	{"bus_cycles", 0x001d},
	{"l1d_cache_allocate", 0x001f},
	{"l2d_cache_allocate", 0x0020},
	{"br_retired", 0x0021},
}
