package sqlinline

const QCreateVoucherTable = `--sql 3e9a1c52-8b7d-4f0e-a6c1-5d2b9e7f4a10
create table if not exists user_vouchers (
    user_id    text primary key,
    expires_at timestamptz not null,
    granted_at timestamptz not null default now()
);
`

const QSelectVoucherExpiry = `--sql 7c41d0e8-2f5a-4b93-8e6d-1a0c9b3f5e27
select expires_at
from user_vouchers
where user_id = $1::text
limit 1;
`

const QUpsertVoucher = `--sql b2f86e3d-94c1-4a7e-b05f-6d8e2c1a9f43
insert into user_vouchers (user_id, expires_at, granted_at)
values ($1::text, $2::timestamptz, now())
on conflict (user_id) do update set
    expires_at = excluded.expires_at,
    granted_at = now();
`
